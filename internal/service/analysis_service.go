// FILE: internal/service/analysis_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-specforge-be/internal/constant"
	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/pkg/logger"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/diff"
	"ai-specforge-be/pkg/draft"
	"ai-specforge-be/pkg/embedding"
	"ai-specforge-be/pkg/events"
	"ai-specforge-be/pkg/inference"
	"ai-specforge-be/pkg/knowledge"
	"ai-specforge-be/pkg/lineage"
	"ai-specforge-be/pkg/lint"
	pktNats "ai-specforge-be/pkg/nats"
	"ai-specforge-be/pkg/reuse"

	"github.com/google/uuid"
)

type IAnalysisService interface {
	Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitAnalysisRequest) (*dto.SubmitAnalysisResponse, error)
	Status(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AnalysisStatusResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AnalysisDetailResponse, error)
	History(ctx context.Context, userId uuid.UUID, rootId uuid.UUID) ([]*dto.HistoryItemResponse, error)
	Diff(ctx context.Context, userId uuid.UUID, leftId, rightId uuid.UUID) (*dto.DiffResponse, error)
	Finalize(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FinalizeResponse, error)
	UpdateResult(ctx context.Context, userId uuid.UUID, req *dto.UpdateAnalysisRequest) (*dto.UpdateAnalysisResponse, error)
	ValidateDraft(ctx context.Context, userId uuid.UUID, req *dto.ValidateDraftRequest) (*dto.ValidateDraftResponse, error)
}

type analysisService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	reuseEngine       *reuse.Engine
	lineageManager    *lineage.Manager
	draftGate         *draft.Gate
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	log               logger.ILogger
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	reuseEngine *reuse.Engine,
	lineageManager *lineage.Manager,
	draftGate *draft.Gate,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAnalysisService {
	return &analysisService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		reuseEngine:       reuseEngine,
		lineageManager:    lineageManager,
		draftGate:         draftGate,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		log:               log,
	}
}

// Submit persists a PENDING record first and only then enqueues the job.
// A queue failure flips the record to FAILED so the poller is never left
// staring at a PENDING row nobody will ever process.
func (c *analysisService) Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitAnalysisRequest) (*dto.SubmitAnalysisResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	settings := entity.PromptSettings{}
	if req.Settings != nil {
		settings = *req.Settings
	}

	id := uuid.New()
	analysis := entity.Analysis{
		Id:             id,
		RootId:         id,
		Version:        1,
		OwnerId:        userId,
		InputText:      req.Text,
		Status:         entity.AnalysisStatusPending,
		WorkflowStatus: entity.WorkflowStatusDraft,
		Metadata: entity.AnalysisMetadata{
			Trigger:  entity.TriggerInitial,
			Source:   constant.AnalysisSourceUser,
			Settings: settings,
		},
		CreatedAt: time.Now(),
	}

	// Advisory only. A dead embedding service must not block submission.
	hint := c.reuseEngine.FindBestMatch(ctx, req.Text)
	if hint.Found {
		analysis.Metadata.ReuseTier = string(hint.Tier)
		reuseId := hint.AnalysisId
		analysis.Metadata.ReuseAnalysisId = &reuseId
	}

	if err := uow.AnalysisRepository().Create(ctx, &analysis); err != nil {
		return nil, err
	}

	if err := c.enqueue(ctx, uow, &analysis); err != nil {
		return nil, err
	}

	return &dto.SubmitAnalysisResponse{
		Id:      analysis.Id,
		RootId:  analysis.RootId,
		Version: analysis.Version,
		Status:  analysis.Status,
	}, nil
}

// enqueue publishes the job message for an already persisted record and
// downgrades the record to FAILED when the queue rejects it.
func (c *analysisService) enqueue(ctx context.Context, uow unitofwork.UnitOfWork, analysis *entity.Analysis) error {
	msgJson, err := json.Marshal(dto.ProcessAnalysisMessage{AnalysisId: analysis.Id})
	if err != nil {
		return err
	}

	if err := c.publisherService.Publish(ctx, msgJson); err != nil {
		c.log.Error("analysis", "failed to enqueue job", map[string]interface{}{
			"analysis_id": analysis.Id.String(),
			"error":       err.Error(),
		})

		now := time.Now()
		analysis.Status = entity.AnalysisStatusFailed
		analysis.Metadata.ErrorMessage = "queue unavailable"
		analysis.UpdatedAt = &now
		if updateErr := uow.AnalysisRepository().Update(ctx, analysis); updateErr != nil {
			c.log.Error("analysis", "failed to mark enqueue failure", map[string]interface{}{
				"analysis_id": analysis.Id.String(),
				"error":       updateErr.Error(),
			})
		}
		return fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	return nil
}

// Status is the polling endpoint. An unknown id yields status "UNKNOWN"
// rather than an error so pollers can treat it uniformly.
func (c *analysisService) Status(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AnalysisStatusResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return &dto.AnalysisStatusResponse{Id: id, Status: "UNKNOWN"}, nil
	}

	res := &dto.AnalysisStatusResponse{
		Id:             analysis.Id,
		Status:         analysis.Status,
		WorkflowStatus: string(analysis.WorkflowStatus),
		ErrorMessage:   analysis.Metadata.ErrorMessage,
	}

	if analysis.Status == entity.AnalysisStatusCompleted && analysis.ResultJson != nil {
		if result, err := inference.ParseResult(analysis.ResultJson); err == nil {
			res.QualityScore = result.QualityScore
		}
	}

	return res, nil
}

func (c *analysisService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AnalysisDetailResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, serverutils.NewNotFound("analysis not found")
	}

	return toDetailResponse(analysis), nil
}

// History lists a full lineage, newest version first.
func (c *analysisService) History(ctx context.Context, userId uuid.UUID, rootId uuid.UUID) ([]*dto.HistoryItemResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	items, err := uow.AnalysisRepository().FindAll(ctx,
		specification.ByRootID{RootID: rootId},
		specification.OwnedBy{OwnerID: userId},
		specification.OrderBy{Field: "version", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.HistoryItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, &dto.HistoryItemResponse{
			Id:          item.Id,
			ParentId:    item.ParentId,
			Version:     item.Version,
			Status:      item.Status,
			IsFinalized: item.IsFinalized,
			Trigger:     string(item.Metadata.Trigger),
			CreatedAt:   item.CreatedAt,
		})
	}

	return res, nil
}

func (c *analysisService) Diff(ctx context.Context, userId uuid.UUID, leftId, rightId uuid.UUID) (*dto.DiffResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	left, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: leftId},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	right, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: rightId},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, serverutils.NewNotFound("analysis not found")
	}

	var leftResult, rightResult *inference.StructuredResult
	if left.ResultJson != nil {
		leftResult, _ = inference.ParseResult(left.ResultJson)
	}
	if right.ResultJson != nil {
		rightResult, _ = inference.ParseResult(right.ResultJson)
	}

	return &dto.DiffResponse{
		LeftId:  left.Id,
		RightId: right.Id,
		Delta:   diff.Compare(left.InputText, right.InputText, leftResult, rightResult),
	}, nil
}

// Finalize promotes a completed version into the reuse corpus. It is
// idempotent: repeating it never duplicates knowledge chunks, and an
// already finalized record short-circuits. A failed embedding write
// downgrades to "finalized without signature" instead of failing.
func (c *analysisService) Finalize(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FinalizeResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: userId},
	)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, serverutils.NewNotFound("analysis not found")
	}
	if analysis.IsFinalized {
		return &dto.FinalizeResponse{
			Id:            analysis.Id,
			IsFinalized:   true,
			AlreadyStored: true,
			HasSignature:  len(analysis.VectorSignature) > 0,
		}, nil
	}
	if analysis.Status != entity.AnalysisStatusCompleted {
		return nil, serverutils.NewConflict("only completed analyses can be finalized")
	}

	result, err := inference.ParseResult(analysis.ResultJson)
	if err != nil {
		return nil, fmt.Errorf("stored result is unreadable: %w", err)
	}

	chunks := knowledge.Shred(analysis.Id, result)

	// Best effort. The corpus entry is still useful without a signature,
	// it just cannot be found by similarity search.
	hasSignature := false
	if embRes, embErr := c.embeddingProvider.Generate(analysis.InputText, "RETRIEVAL_DOCUMENT"); embErr != nil {
		c.log.Warn("analysis", "finalized without vector signature", map[string]interface{}{
			"analysis_id": analysis.Id.String(),
			"error":       embErr.Error(),
		})
	} else {
		analysis.VectorSignature = embRes.Embedding.Values
		hasSignature = true
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	stored := 0
	if len(chunks) > 0 {
		stored, err = uow.KnowledgeChunkRepository().CreateIgnoreDuplicates(ctx, chunks)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	analysis.IsFinalized = true
	analysis.WorkflowStatus = entity.WorkflowStatusCompleted
	analysis.UpdatedAt = &now
	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if c.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeAnalysisFinalized,
			Data: map[string]interface{}{
				"analysis_id":   analysis.Id,
				"owner_id":      userId,
				"chunks_stored": stored,
			},
			OccurredAt: time.Now(),
		}
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			c.log.Warn("analysis", "failed to publish finalized event", map[string]interface{}{
				"analysis_id": analysis.Id.String(),
				"error":       err.Error(),
			})
		}
	}

	return &dto.FinalizeResponse{
		Id:           analysis.Id,
		IsFinalized:  true,
		ChunksStored: stored,
		HasSignature: hasSignature,
	}, nil
}

// UpdateResult is the manual-edit flow: a human-corrected document becomes
// a new version immediately, re-linted but without re-entering the queue.
func (c *analysisService) UpdateResult(ctx context.Context, userId uuid.UUID, req *dto.UpdateAnalysisRequest) (*dto.UpdateAnalysisResponse, error) {
	result, err := inference.ParseResult(req.ResultJson)
	if err != nil {
		return nil, serverutils.NewBadRequest("result_json does not match the specification schema")
	}

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
	if parent.Status != entity.AnalysisStatusCompleted {
		return nil, serverutils.NewConflict("only completed analyses can be edited")
	}

	report := lint.Lint(result)
	score := report.Score
	result.QualityScore = &score
	result.QualityIssues = report.Issues

	resultJson, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	child, err := c.lineageManager.DeriveNewVersion(ctx, uow, parent, entity.TriggerEdit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	child.ResultJson = resultJson
	child.GeneratedCode = result.GeneratedCode
	child.Status = entity.AnalysisStatusCompleted
	child.WorkflowStatus = entity.WorkflowStatusCompleted
	child.UpdatedAt = &now

	if err := uow.AnalysisRepository().Create(ctx, child); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.UpdateAnalysisResponse{
		Id:           child.Id,
		Version:      child.Version,
		QualityScore: report.Score,
		Issues:       report.Issues,
	}, nil
}

// ValidateDraft runs the structural gate and, when the structure holds,
// the semantic gate. Blocking issues park the record in NEEDS_FIX.
func (c *analysisService) ValidateDraft(ctx context.Context, userId uuid.UUID, req *dto.ValidateDraftRequest) (*dto.ValidateDraftResponse, error) {
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
	// Terminal records are immutable; validation only applies to intake drafts.
	if analysis.Status.IsTerminal() {
		return nil, serverutils.NewConflict("analysis is already terminal")
	}

	// Visible to pollers while the semantic check is in flight.
	analysis.WorkflowStatus = entity.WorkflowStatusValidating
	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return nil, err
	}

	issues := draft.CheckStructure(&req.Draft)

	if !draft.HasCritical(issues) {
		semanticIssues, semErr := c.draftGate.CheckSemantics(ctx, &req.Draft)
		if semErr != nil {
			// The structural verdict still stands when the model is down.
			c.log.Warn("analysis", "semantic check unavailable", map[string]interface{}{
				"analysis_id": analysis.Id.String(),
				"error":       semErr.Error(),
			})
		} else {
			issues = append(issues, semanticIssues...)
		}
	}

	passed := !draft.HasCritical(issues)

	now := time.Now()
	if passed {
		analysis.WorkflowStatus = entity.WorkflowStatusValidated
	} else {
		analysis.WorkflowStatus = entity.WorkflowStatusNeedsFix
	}

	if issuesJson, err := json.Marshal(issues); err == nil {
		analysis.Metadata.ValidationIssues = issuesJson
	}
	if draftJson, err := json.Marshal(req.Draft); err == nil {
		analysis.Metadata.DraftPayload = draftJson
	}
	analysis.UpdatedAt = &now

	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return nil, err
	}

	return &dto.ValidateDraftResponse{
		Id:             analysis.Id,
		WorkflowStatus: string(analysis.WorkflowStatus),
		Passed:         passed,
		Issues:         issues,
	}, nil
}

func toDetailResponse(analysis *entity.Analysis) *dto.AnalysisDetailResponse {
	return &dto.AnalysisDetailResponse{
		Id:             analysis.Id,
		RootId:         analysis.RootId,
		ParentId:       analysis.ParentId,
		Version:        analysis.Version,
		InputText:      analysis.InputText,
		ResultJson:     analysis.ResultJson,
		GeneratedCode:  analysis.GeneratedCode,
		Status:         analysis.Status,
		WorkflowStatus: analysis.WorkflowStatus,
		IsFinalized:    analysis.IsFinalized,
		Metadata:       analysis.Metadata,
		CreatedAt:      analysis.CreatedAt,
		UpdatedAt:      analysis.UpdatedAt,
	}
}
