package controller

import (
	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Diff(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
	Finalize(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
}

type analysisController struct {
	analysisService service.IAnalysisService
}

func NewAnalysisController(analysisService service.IAnalysisService) IAnalysisController {
	return &analysisController{
		analysisService: analysisService,
	}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("history/:rootId", c.History)
	h.Get("diff/:leftId/:rightId", c.Diff)
	h.Post("", c.Submit)
	h.Get(":id/status", c.Status)
	h.Get(":id", c.Show)
	h.Post(":id/validate", c.Validate)
	h.Post(":id/finalize", c.Finalize)
	h.Put(":id", c.Update)
}

func (c *analysisController) Submit(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SubmitAnalysisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.analysisService.Submit(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Analysis queued", res))
}

func (c *analysisController) Status(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.analysisService.Status(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get status", res))
}

func (c *analysisController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.analysisService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show analysis", res))
}

func (c *analysisController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	rootIdParam := ctx.Params("rootId")
	rootId, _ := uuid.Parse(rootIdParam)

	res, err := c.analysisService.History(ctx.Context(), userId, rootId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *analysisController) Diff(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	leftId, _ := uuid.Parse(ctx.Params("leftId"))
	rightId, _ := uuid.Parse(ctx.Params("rightId"))

	res, err := c.analysisService.Diff(ctx.Context(), userId, leftId, rightId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success diff versions", res))
}

func (c *analysisController) Validate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.ValidateDraftRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.analysisService.ValidateDraft(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Validation finished", res))
}

func (c *analysisController) Finalize(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.analysisService.Finalize(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Analysis finalized", res))
}

func (c *analysisController) Update(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.UpdateAnalysisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.analysisService.UpdateResult(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update analysis", res))
}
