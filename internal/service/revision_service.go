// FILE: internal/service/revision_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-specforge-be/internal/constant"
	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/repository/memory"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/inference"
	"ai-specforge-be/pkg/lineage"
	"ai-specforge-be/pkg/lint"
	"ai-specforge-be/pkg/store"

	"github.com/google/uuid"
)

type IRevisionService interface {
	Chat(ctx context.Context, userId uuid.UUID, req *dto.ChatRevisionRequest) (*dto.ChatRevisionResponse, error)
	Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*dto.RegenerateResponse, error)
	ListMessages(ctx context.Context, userId uuid.UUID, rootId uuid.UUID) ([]*dto.RevisionMessageResponse, error)
}

type revisionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	lineageManager   *lineage.Manager
	gateway          *inference.Gateway
	sessions         *memory.RevisionSessionRepository
	log              logger.ILogger
}

func NewRevisionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	lineageManager *lineage.Manager,
	gateway *inference.Gateway,
	sessions *memory.RevisionSessionRepository,
	log logger.ILogger,
) IRevisionService {
	return &revisionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		lineageManager:   lineageManager,
		gateway:          gateway,
		sessions:         sessions,
		log:              log,
	}
}

// Chat runs one conversational revision turn against the latest completed
// version. The model decides whether the turn changes the document; when
// it does, the updated document becomes a new version atomically with
// both message rows, so no turn is ever half-recorded.
func (c *revisionService) Chat(ctx context.Context, userId uuid.UUID, req *dto.ChatRevisionRequest) (*dto.ChatRevisionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, serverutils.NewNotFound("analysis not found")
	}
	if analysis.Status != entity.AnalysisStatusCompleted {
		return nil, serverutils.NewConflict("analysis is not in a conversational state")
	}

	history, err := c.recentHistory(ctx, uow, analysis.RootId, userId)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(constant.ChatRevisionPromptV1,
		analysis.InputText,
		string(analysis.ResultJson),
		renderHistory(history),
		req.Message,
	)

	settings := inference.Settings{
		Model:       analysis.Metadata.Settings.Model,
		Temperature: analysis.Metadata.Settings.Temperature,
		Language:    analysis.Metadata.Settings.Language,
	}

	outcome, err := c.gateway.Converse(ctx, prompt, settings)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	userMsg := &entity.RevisionMessage{
		Id:             uuid.New(),
		AnalysisRootId: analysis.RootId,
		OwnerId:        userId,
		Role:           constant.RevisionRoleUser,
		Content:        req.Message,
		CreatedAt:      now,
	}
	if err := uow.RevisionMessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}

	var newId *uuid.UUID
	var newVersion *int
	if outcome.UpdatedResult != nil {
		report := lint.Lint(outcome.UpdatedResult)
		score := report.Score
		outcome.UpdatedResult.QualityScore = &score
		outcome.UpdatedResult.QualityIssues = report.Issues

		resultJson, err := json.Marshal(outcome.UpdatedResult)
		if err != nil {
			return nil, err
		}

		child, err := c.lineageManager.DeriveNewVersion(ctx, uow, analysis, entity.TriggerChat)
		if err != nil {
			return nil, err
		}
		child.ResultJson = resultJson
		child.GeneratedCode = outcome.UpdatedResult.GeneratedCode
		child.Status = entity.AnalysisStatusCompleted
		child.WorkflowStatus = entity.WorkflowStatusCompleted
		child.Metadata.Source = constant.AnalysisSourceAI
		child.UpdatedAt = &now

		if err := uow.AnalysisRepository().Create(ctx, child); err != nil {
			return nil, err
		}

		newId = &child.Id
		newVersion = &child.Version
	}

	modelMsg := &entity.RevisionMessage{
		Id:                uuid.New(),
		AnalysisRootId:    analysis.RootId,
		OwnerId:           userId,
		Role:              constant.RevisionRoleModel,
		Content:           outcome.Reply,
		CreatedAnalysisId: newId,
		CreatedAt:         now,
	}
	if err := uow.RevisionMessageRepository().Create(ctx, modelMsg); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	c.rememberTurns(analysis.RootId, userId, history,
		store.RevisionTurn{Role: constant.RevisionRoleUser, Content: req.Message},
		store.RevisionTurn{Role: constant.RevisionRoleModel, Content: outcome.Reply},
	)

	return &dto.ChatRevisionResponse{
		Reply:         outcome.Reply,
		NewAnalysisId: newId,
		NewVersion:    newVersion,
	}, nil
}

// Regenerate derives a fresh PENDING version from an existing record and
// sends it through the queue. This is also the only path that re-runs a
// FAILED analysis.
func (c *revisionService) Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*dto.RegenerateResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	parent, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, serverutils.NewNotFound("analysis not found")
	}
	if !parent.Status.IsTerminal() {
		return nil, serverutils.NewConflict("analysis is still processing")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	child, err := c.lineageManager.DeriveNewVersion(ctx, uow, parent, entity.TriggerRegenerate)
	if err != nil {
		uow.Rollback()
		return nil, err
	}

	child.Metadata.ImprovementNotes = req.ImprovementNotes
	child.Metadata.AffectedSections = req.AffectedSections
	if req.Settings != nil {
		child.Metadata.Settings = *req.Settings
	}

	if err := uow.AnalysisRepository().Create(ctx, child); err != nil {
		uow.Rollback()
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Same contract as Submit: the row exists before the queue sees it.
	msgJson, err := json.Marshal(dto.ProcessAnalysisMessage{AnalysisId: child.Id})
	if err != nil {
		return nil, err
	}
	if err := c.publisherService.Publish(ctx, msgJson); err != nil {
		c.log.Error("revision", "failed to enqueue regeneration", map[string]interface{}{
			"analysis_id": child.Id.String(),
			"error":       err.Error(),
		})

		now := time.Now()
		child.Status = entity.AnalysisStatusFailed
		child.Metadata.ErrorMessage = "queue unavailable"
		child.UpdatedAt = &now
		failUow := c.uowFactory.NewUnitOfWork(ctx)
		if updateErr := failUow.AnalysisRepository().Update(ctx, child); updateErr != nil {
			c.log.Error("revision", "failed to mark enqueue failure", map[string]interface{}{
				"analysis_id": child.Id.String(),
				"error":       updateErr.Error(),
			})
		}
		return nil, fmt.Errorf("failed to enqueue regeneration: %w", err)
	}

	return &dto.RegenerateResponse{
		Id:      child.Id,
		RootId:  child.RootId,
		Version: child.Version,
		Status:  child.Status,
	}, nil
}

func (c *revisionService) ListMessages(ctx context.Context, userId uuid.UUID, rootId uuid.UUID) ([]*dto.RevisionMessageResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.RevisionMessageRepository().FindAll(ctx,
		specification.ByRevisionRootID{RootID: rootId},
		specification.OwnedBy{OwnerID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.RevisionMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.RevisionMessageResponse{
			Id:                m.Id,
			Role:              m.Role,
			Content:           m.Content,
			CreatedAnalysisId: m.CreatedAnalysisId,
			CreatedAt:         m.CreatedAt,
		})
	}

	return res, nil
}

// recentHistory returns the last few turns, preferring the in-memory
// session and falling back to the message table on a cold cache.
func (c *revisionService) recentHistory(ctx context.Context, uow unitofwork.UnitOfWork, rootId uuid.UUID, userId uuid.UUID) ([]store.RevisionTurn, error) {
	if session, found := c.sessions.Get(rootId.String()); found {
		return session.Turns, nil
	}

	messages, err := uow.RevisionMessageRepository().FindAll(ctx,
		specification.ByRevisionRootID{RootID: rootId},
		specification.OwnedBy{OwnerID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: constant.RevisionHistoryWindow, Offset: 0},
	)
	if err != nil {
		return nil, err
	}

	// Fetched newest first, replayed oldest first.
	turns := make([]store.RevisionTurn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, store.RevisionTurn{Role: messages[i].Role, Content: messages[i].Content})
	}

	return turns, nil
}

func (c *revisionService) rememberTurns(rootId uuid.UUID, userId uuid.UUID, history []store.RevisionTurn, newTurns ...store.RevisionTurn) {
	turns := append(history, newTurns...)
	if len(turns) > constant.RevisionHistoryWindow {
		turns = turns[len(turns)-constant.RevisionHistoryWindow:]
	}

	c.sessions.Save(&store.RevisionSession{
		RootID:  rootId.String(),
		OwnerID: userId.String(),
		Turns:   turns,
	})
}

func renderHistory(turns []store.RevisionTurn) string {
	if len(turns) == 0 {
		return "(no prior messages)"
	}

	var b strings.Builder
	for _, t := range turns {
		b.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
	}
	return b.String()
}
