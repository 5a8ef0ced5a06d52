package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-specforge-be/internal/dto"
	"ai-specforge-be/internal/entity"
	"ai-specforge-be/internal/pkg/serverutils"
	"ai-specforge-be/internal/repository/contract"
	"ai-specforge-be/internal/repository/specification"
	"ai-specforge-be/internal/repository/unitofwork"
	"ai-specforge-be/pkg/inference"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const callbackSecret = "test-secret"

type stubAnalysisRepo struct {
	contract.AnalysisRepository
	mu      sync.Mutex
	rows    map[uuid.UUID]*entity.Analysis
	updates int
}

func (r *stubAnalysisRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range specs {
		if byId, ok := s.(specification.ByID); ok {
			if a, found := r.rows[byId.ID]; found {
				copied := *a
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *stubAnalysisRepo) Update(ctx context.Context, a *entity.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.rows[a.Id] = &copied
	r.updates++
	return nil
}

type stubUow struct {
	repo *stubAnalysisRepo
}

func (u *stubUow) Begin(ctx context.Context) error { return nil }
func (u *stubUow) Commit() error                   { return nil }
func (u *stubUow) Rollback() error                 { return nil }
func (u *stubUow) AnalysisRepository() contract.AnalysisRepository {
	return u.repo
}
func (u *stubUow) KnowledgeChunkRepository() contract.KnowledgeChunkRepository   { return nil }
func (u *stubUow) RevisionMessageRepository() contract.RevisionMessageRepository { return nil }

type stubFactory struct {
	uow *stubUow
}

func (f *stubFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (d *recordingDispatcher) Publish(ctx context.Context, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return nil
}

func (d *recordingDispatcher) dispatched() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

func newCallbackApp(repo *stubAnalysisRepo, dispatcher JobDispatcher) *fiber.App {
	app := fiber.New()
	h := NewJobCallbackHandler(&stubFactory{uow: &stubUow{repo: repo}}, dispatcher, callbackSecret, quietLogger{})
	h.RegisterRoutes(app)
	return app
}

func postSigned(t *testing.T, app *fiber.App, body []byte, signature string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("POST", "/internal/job-callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Callback-Signature", signature)
	}

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	_ = json.Unmarshal(raw, &parsed)
	return resp.StatusCode, parsed
}

func pendingRecord() *entity.Analysis {
	id := uuid.New()
	return &entity.Analysis{
		Id:        id,
		RootId:    id,
		Version:   1,
		OwnerId:   uuid.New(),
		InputText: "track restaurant orders",
		Status:    entity.AnalysisStatusPending,
		CreatedAt: time.Now(),
	}
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	body, _ := json.Marshal(map[string]interface{}{"analysis_id": uuid.New()})

	code, _ := postSigned(t, app, body, "deadbeef")
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, 0, dispatcher.dispatched())
}

func TestCallbackDispatchesJobDelivery(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	record := pendingRecord()
	repo.rows[record.Id] = record

	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	body, _ := json.Marshal(map[string]interface{}{
		"analysis_id": record.Id,
		"owner_id":    record.OwnerId,
	})

	code, _ := postSigned(t, app, body, serverutils.SignPayload(callbackSecret, body))
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, 1, dispatcher.dispatched())

	var msg dto.ProcessAnalysisMessage
	assert.NoError(t, json.Unmarshal(dispatcher.payloads[0], &msg))
	assert.Equal(t, record.Id, msg.AnalysisId)
}

func TestCallbackJobDeliveryRejectsOwnerMismatch(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	record := pendingRecord()
	repo.rows[record.Id] = record

	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	body, _ := json.Marshal(map[string]interface{}{
		"analysis_id": record.Id,
		"owner_id":    uuid.New(),
	})

	code, _ := postSigned(t, app, body, serverutils.SignPayload(callbackSecret, body))
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, 0, dispatcher.dispatched())
}

func TestCallbackJobDeliveryTerminalIsNoOp(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	record := pendingRecord()
	record.Status = entity.AnalysisStatusCompleted
	repo.rows[record.Id] = record

	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	body, _ := json.Marshal(map[string]interface{}{"analysis_id": record.Id})

	code, _ := postSigned(t, app, body, serverutils.SignPayload(callbackSecret, body))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 0, dispatcher.dispatched())
	assert.Equal(t, 0, repo.updates)
}

func TestCallbackAppliesCompletedResult(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	record := pendingRecord()
	repo.rows[record.Id] = record

	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	resultJson := `{
		"title": "Orders",
		"features": [{"id": "F1", "name": "Tracking", "description": "Live courier position"}],
		"functional_requirements": [{"id": "FR1", "description": "Show order location fast"}]
	}`
	body, _ := json.Marshal(map[string]interface{}{
		"analysis_id": record.Id,
		"status":      "COMPLETED",
		"result_json": json.RawMessage(resultJson),
	})

	code, _ := postSigned(t, app, body, serverutils.SignPayload(callbackSecret, body))
	assert.Equal(t, fiber.StatusOK, code)

	stored, _ := repo.FindOne(context.Background(), specification.ByID{ID: record.Id})
	assert.Equal(t, entity.AnalysisStatusCompleted, stored.Status)

	result, err := inference.ParseResult(stored.ResultJson)
	assert.NoError(t, err)
	assert.NotNil(t, result.QualityScore)
	// One ambiguous term costs 5 points.
	assert.Equal(t, 95, *result.QualityScore)
}

func TestCallbackDuplicateResultLeavesRecordUnchanged(t *testing.T) {
	repo := &stubAnalysisRepo{rows: map[uuid.UUID]*entity.Analysis{}}
	record := pendingRecord()
	record.Status = entity.AnalysisStatusFailed
	record.Metadata.ErrorMessage = "inference timed out"
	repo.rows[record.Id] = record

	dispatcher := &recordingDispatcher{}
	app := newCallbackApp(repo, dispatcher)

	body, _ := json.Marshal(map[string]interface{}{
		"analysis_id": record.Id,
		"status":      "FAILED",
		"error":       "a different reason",
	})

	code, _ := postSigned(t, app, body, serverutils.SignPayload(callbackSecret, body))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 0, repo.updates)

	stored, _ := repo.FindOne(context.Background(), specification.ByID{ID: record.Id})
	assert.Equal(t, "inference timed out", stored.Metadata.ErrorMessage)
}
