package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/pkg/inference"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const workerSpecJSON = `{
	"title": "Order Tracking",
	"features": [{"id": "F1", "name": "Tracking", "description": "Live map"}],
	"functional_requirements": [{"id": "FR1", "description": "Show order location fast"}],
	"non_functional_requirements": [{"id": "NFR1", "category": "performance", "description": "Updates within 500 ms"}],
	"user_stories": [],
	"acceptance_criteria": []
}`

func startConsumer(t *testing.T, factory *memFactory, llmResponse string, llmErr error) IPublisherService {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	gateway := inference.NewGateway(&fakeLLM{response: llmResponse, err: llmErr}, time.Second)

	consumer := NewConsumerService(pubSub, "PROCESS_ANALYSIS", factory, gateway, nil)
	if err := consumer.Consume(context.Background()); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}

	return NewPublisherService("PROCESS_ANALYSIS", pubSub)
}

func enqueueJob(t *testing.T, publisher IPublisherService, id uuid.UUID) {
	t.Helper()
	payload, _ := json.Marshal(dto.ProcessAnalysisMessage{AnalysisId: id})
	if err := publisher.Publish(context.Background(), payload); err != nil {
		t.Fatalf("failed to publish job: %v", err)
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func pendingAnalysis() *entity.Analysis {
	id := uuid.New()
	return &entity.Analysis{
		Id:             id,
		RootId:         id,
		Version:        1,
		OwnerId:        uuid.New(),
		InputText:      "track restaurant orders",
		Status:         entity.AnalysisStatusPending,
		WorkflowStatus: entity.WorkflowStatusDraft,
		Metadata:       entity.AnalysisMetadata{Trigger: entity.TriggerInitial},
		CreatedAt:      time.Now(),
	}
}

func TestConsumerCompletesJob(t *testing.T) {
	factory := newMemFactory()
	analysis := pendingAnalysis()
	factory.uow.analyses.rows[analysis.Id] = analysis

	publisher := startConsumer(t, factory, workerSpecJSON, nil)
	enqueueJob(t, publisher, analysis.Id)

	ok := waitFor(t, func() bool {
		return factory.uow.analyses.get(analysis.Id).Status == entity.AnalysisStatusCompleted
	})
	assert.True(t, ok, "job never reached COMPLETED")

	stored := factory.uow.analyses.get(analysis.Id)
	assert.Equal(t, entity.WorkflowStatusCompleted, stored.WorkflowStatus)

	result, err := inference.ParseResult(stored.ResultJson)
	assert.NoError(t, err)
	assert.NotNil(t, result.QualityScore)
	// One ambiguous term in FR1 costs 5 points.
	assert.Equal(t, 95, *result.QualityScore)
}

func TestConsumerMarksFailedOnMalformedOutput(t *testing.T) {
	factory := newMemFactory()
	analysis := pendingAnalysis()
	factory.uow.analyses.rows[analysis.Id] = analysis

	publisher := startConsumer(t, factory, "this is not json", nil)
	enqueueJob(t, publisher, analysis.Id)

	ok := waitFor(t, func() bool {
		return factory.uow.analyses.get(analysis.Id).Status == entity.AnalysisStatusFailed
	})
	assert.True(t, ok, "job never reached FAILED")

	stored := factory.uow.analyses.get(analysis.Id)
	assert.NotEmpty(t, stored.Metadata.ErrorMessage)
	assert.Nil(t, stored.ResultJson)
}

func TestConsumerDuplicateDeliveryIsNoOp(t *testing.T) {
	factory := newMemFactory()
	analysis := pendingAnalysis()
	analysis.Status = entity.AnalysisStatusCompleted
	analysis.WorkflowStatus = entity.WorkflowStatusCompleted
	analysis.ResultJson = json.RawMessage(`{"title":"done","features":[{"id":"F1","name":"x","description":"y"}],"functional_requirements":[]}`)
	factory.uow.analyses.rows[analysis.Id] = analysis

	publisher := startConsumer(t, factory, workerSpecJSON, nil)
	enqueueJob(t, publisher, analysis.Id)
	enqueueJob(t, publisher, analysis.Id)

	// Give the consumer time to (wrongly) act.
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, 0, factory.uow.analyses.updateCount(), "terminal record must not be touched")
	stored := factory.uow.analyses.get(analysis.Id)
	assert.Equal(t, entity.AnalysisStatusCompleted, stored.Status)
	assert.JSONEq(t, string(analysis.ResultJson), string(stored.ResultJson))
}

func TestConsumerIgnoresUnknownRecord(t *testing.T) {
	factory := newMemFactory()

	publisher := startConsumer(t, factory, workerSpecJSON, nil)
	enqueueJob(t, publisher, uuid.New())

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 0, factory.uow.analyses.updateCount())
}
