// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-specforge-be/internal/constant"
	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/events"
	"ai-specforge-be/pkg/inference"
	"ai-specforge-be/pkg/lint"
	pktNats "ai-specforge-be/pkg/nats"
	"ai-specforge-be/pkg/reuse"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	gateway        *inference.Gateway
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	gateway *inference.Gateway,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		gateway:        gateway,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage drives one job through inference and linting to a
// terminal state. Ack/Nack discipline: malformed payloads and terminal
// outcomes Ack (retrying cannot help), persistence hiccups Nack so the
// queue redelivers.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessAnalysisMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal job message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing analysis job %s", payload.AnalysisId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: payload.AnalysisId})
	if err != nil {
		log.Printf("[ERROR] Failed to load analysis %s: %v", payload.AnalysisId, err)
		msg.Nack()
		return
	}
	if analysis == nil {
		log.Printf("[WARN] Analysis not found: %s", payload.AnalysisId)
		msg.Ack() // Record deleted? Ack.
		return
	}

	// Duplicate delivery. The record already reached a terminal state, so
	// this message is a leftover and must change nothing.
	if analysis.Status.IsTerminal() {
		log.Printf("[INFO] Analysis %s already %s, skipping duplicate delivery", analysis.Id, analysis.Status)
		msg.Ack()
		return
	}

	prompt := cs.buildPrompt(ctx, uow, analysis)

	settings := inference.Settings{
		Model:       analysis.Metadata.Settings.Model,
		Temperature: analysis.Metadata.Settings.Temperature,
		Language:    analysis.Metadata.Settings.Language,
	}

	result, infErr := cs.gateway.GenerateSpecification(ctx, prompt, settings)
	if infErr != nil {
		log.Printf("[ERROR] Inference failed for analysis %s: %v", analysis.Id, infErr)
		if err := cs.persistTerminal(ctx, analysis.Id, func(a *entity.Analysis) {
			a.Status = entity.AnalysisStatusFailed
			a.Metadata.ErrorMessage = infErr.Error()
		}); err != nil {
			log.Printf("[ERROR] Failed to persist FAILED state for %s: %v", analysis.Id, err)
			msg.Nack()
			return
		}
		cs.publishEvent(ctx, events.TypeAnalysisFailed, analysis, map[string]interface{}{
			"reason": infErr.Error(),
		})
		msg.Ack()
		return
	}

	report := lint.Lint(result)
	score := report.Score
	result.QualityScore = &score
	result.QualityIssues = report.Issues

	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal result for %s: %v", analysis.Id, err)
		msg.Nack()
		return
	}

	if err := cs.persistTerminal(ctx, analysis.Id, func(a *entity.Analysis) {
		a.ResultJson = resultJson
		a.GeneratedCode = result.GeneratedCode
		a.Status = entity.AnalysisStatusCompleted
		a.WorkflowStatus = entity.WorkflowStatusCompleted
	}); err != nil {
		log.Printf("[ERROR] Failed to persist COMPLETED state for %s: %v", analysis.Id, err)
		msg.Nack()
		return
	}

	cs.publishEvent(ctx, events.TypeAnalysisCompleted, analysis, map[string]interface{}{
		"quality_score": report.Score,
	})

	log.Printf("[SUCCESS] Analysis %s completed with score %d", analysis.Id, report.Score)
	msg.Ack()
}

// persistTerminal applies mutate and writes the record inside a
// transaction, re-checking terminality under the lock so a racing
// duplicate delivery cannot overwrite a terminal state.
func (cs *consumerService) persistTerminal(ctx context.Context, id uuid.UUID, mutate func(*entity.Analysis)) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if analysis == nil {
		return fmt.Errorf("analysis %s vanished mid-processing", id)
	}
	if analysis.Status.IsTerminal() {
		return nil
	}

	now := time.Now()
	mutate(analysis)
	analysis.UpdatedAt = &now

	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return err
	}

	return uow.Commit()
}

// buildPrompt assembles the generation prompt for the record's trigger,
// folding in reuse context when the submission-time hint was strong
// enough to matter.
func (cs *consumerService) buildPrompt(ctx context.Context, uow unitofwork.UnitOfWork, analysis *entity.Analysis) string {
	if analysis.Metadata.Trigger == entity.TriggerRegenerate && analysis.ParentId != nil {
		parent, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: *analysis.ParentId})
		if err == nil && parent != nil && parent.ResultJson != nil {
			sections := "all"
			if len(analysis.Metadata.AffectedSections) > 0 {
				sections = fmt.Sprintf("%v", analysis.Metadata.AffectedSections)
			}
			return fmt.Sprintf(constant.RegeneratePromptV1,
				analysis.InputText,
				string(parent.ResultJson),
				analysis.Metadata.ImprovementNotes,
				sections,
			)
		}
		log.Printf("[WARN] Regenerate parent unavailable for %s, falling back to fresh generation", analysis.Id)
	}

	reuseBlock := ""
	tier := reuse.Tier(analysis.Metadata.ReuseTier)
	if analysis.Metadata.ReuseAnalysisId != nil && (tier == reuse.TierExact || tier == reuse.TierHigh || tier == reuse.TierPartial) {
		prior, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: *analysis.Metadata.ReuseAnalysisId})
		if err == nil && prior != nil && prior.ResultJson != nil {
			role := "background"
			switch tier {
			case reuse.TierExact:
				role = "primary"
			case reuse.TierHigh:
				role = "reference"
			}
			reuseBlock = fmt.Sprintf(constant.ReuseContextBlockV1, tier, role, string(prior.ResultJson))
		}
	}

	return fmt.Sprintf(constant.GenerateSpecPromptV1, analysis.InputText, reuseBlock)
}

func (cs *consumerService) publishEvent(ctx context.Context, eventType string, analysis *entity.Analysis, extra map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}

	data := map[string]interface{}{
		"analysis_id": analysis.Id,
		"root_id":     analysis.RootId,
		"owner_id":    analysis.OwnerId,
		"version":     analysis.Version,
	}
	for k, v := range extra {
		data[k] = v
	}

	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	// Notifications are auxiliary, a publish failure never fails the job.
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}
