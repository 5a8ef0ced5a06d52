package controller

import (
	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRevisionController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
}

type revisionController struct {
	revisionService service.IRevisionService
}

func NewRevisionController(revisionService service.IRevisionService) IRevisionController {
	return &revisionController{
		revisionService: revisionService,
	}
}

func (c *revisionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("messages/:rootId", c.Messages)
	h.Post(":id/chat", c.Chat)
	h.Post(":id/regenerate", c.Regenerate)
}

func (c *revisionController) Chat(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.ChatRevisionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.revisionService.Chat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat revision", res))
}

func (c *revisionController) Regenerate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.RegenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	res, err := c.revisionService.Regenerate(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Regeneration queued", res))
}

func (c *revisionController) Messages(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	rootIdParam := ctx.Params("rootId")
	rootId, _ := uuid.Parse(rootIdParam)

	res, err := c.revisionService.ListMessages(ctx.Context(), userId, rootId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}
