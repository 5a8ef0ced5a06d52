package handler

import (
	"context"
	"encoding/json"
	"time"

	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/inference"
	"ai-specforge-be/pkg/lint"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// JobDispatcher hands a job message to the worker queue.
type JobDispatcher interface {
	Publish(ctx context.Context, payload []byte) error
}

// JobCallbackHandler is the machine-to-machine twin of the in-process
// consumer, authenticated by HMAC signature instead of a user token. It
// accepts two payload shapes: a job delivery (no status field), which is
// dispatched into the worker pipeline, and a terminal result posted by an
// out-of-process inference worker, which is applied with the same
// transition and duplicate-delivery no-op as the consumer.
type JobCallbackHandler struct {
	uowFactory unitofwork.RepositoryFactory
	dispatcher JobDispatcher
	secret     string
	logger     logger.ILogger
}

func NewJobCallbackHandler(uowFactory unitofwork.RepositoryFactory, dispatcher JobDispatcher, secret string, log logger.ILogger) *JobCallbackHandler {
	return &JobCallbackHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
		secret:     secret,
		logger:     log,
	}
}

func (h *JobCallbackHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/internal")
	g.Post("job-callback", h.HandleCallback)
}

type jobCallbackRequest struct {
	AnalysisId uuid.UUID       `json:"analysis_id"`
	OwnerId    *uuid.UUID      `json:"owner_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	ResultJson json.RawMessage `json:"result_json,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func (h *JobCallbackHandler) HandleCallback(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse("callback endpoint disabled"))
	}

	// Signature covers the raw body, so verify before parsing.
	signature := c.Get("X-Callback-Signature")
	if !serverutils.VerifySignature(h.secret, c.Body(), signature) {
		h.logger.Warn("callback", "rejected callback with bad signature", map[string]interface{}{
			"ip": c.IP(),
		})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse("invalid signature"))
	}

	var req jobCallbackRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("malformed payload"))
	}

	// A payload without a status field is a job delivery, not a result.
	if req.Status == "" {
		return h.dispatchJob(c, &req)
	}

	status := entity.AnalysisStatus(req.Status)
	if !status.IsTerminal() {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("status must be COMPLETED or FAILED"))
	}

	ctx := c.Context()
	uow := h.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: req.AnalysisId})
	if err != nil {
		return err
	}
	if analysis == nil {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse("analysis not found"))
	}

	// Duplicate delivery: callers may retry, the record does not change.
	if analysis.Status.IsTerminal() {
		return c.JSON(serverutils.SuccessResponse("Already terminal", fiber.Map{
			"analysis_id": analysis.Id,
			"status":      analysis.Status,
		}))
	}

	now := time.Now()
	switch status {
	case entity.AnalysisStatusCompleted:
		result, parseErr := inference.ParseResult(req.ResultJson)
		if parseErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("result_json does not match the specification schema"))
		}

		report := lint.Lint(result)
		score := report.Score
		result.QualityScore = &score
		result.QualityIssues = report.Issues

		resultJson, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			return marshalErr
		}

		analysis.ResultJson = resultJson
		analysis.GeneratedCode = result.GeneratedCode
		analysis.Status = entity.AnalysisStatusCompleted
		analysis.WorkflowStatus = entity.WorkflowStatusCompleted

	case entity.AnalysisStatusFailed:
		analysis.Status = entity.AnalysisStatusFailed
		analysis.Metadata.ErrorMessage = req.Error
	}
	analysis.UpdatedAt = &now

	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	h.logger.Info("callback", "terminal state applied", map[string]interface{}{
		"analysis_id": analysis.Id.String(),
		"status":      string(analysis.Status),
	})

	return c.JSON(serverutils.SuccessResponse("Callback applied", fiber.Map{
		"analysis_id": analysis.Id,
		"status":      analysis.Status,
	}))
}

// dispatchJob routes a signed out-of-process delivery into the same worker
// pipeline the in-process queue feeds. The terminal no-op makes redelivery
// through this path just as safe.
func (h *JobCallbackHandler) dispatchJob(c *fiber.Ctx, req *jobCallbackRequest) error {
	ctx := c.Context()
	uow := h.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: req.AnalysisId})
	if err != nil {
		return err
	}
	if analysis == nil {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse("analysis not found"))
	}
	if req.OwnerId != nil && *req.OwnerId != analysis.OwnerId {
		return c.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse("owner mismatch"))
	}
	if analysis.Status.IsTerminal() {
		return c.JSON(serverutils.SuccessResponse("Already terminal", fiber.Map{
			"analysis_id": analysis.Id,
			"status":      analysis.Status,
		}))
	}

	payload, err := json.Marshal(dto.ProcessAnalysisMessage{AnalysisId: analysis.Id})
	if err != nil {
		return err
	}
	if err := h.dispatcher.Publish(ctx, payload); err != nil {
		h.logger.Error("callback", "failed to dispatch job", map[string]interface{}{
			"analysis_id": analysis.Id.String(),
			"error":       err.Error(),
		})
		return c.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse("queue unavailable"))
	}

	h.logger.Info("callback", "job dispatched", map[string]interface{}{
		"analysis_id": analysis.Id.String(),
	})

	return c.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Job dispatched", fiber.Map{
		"analysis_id": analysis.Id,
		"status":      analysis.Status,
	}))
}
