package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	pkgvalidator "github.com/johnquangdev/call-copilot/pkg/validator"
)

type fakeInsightStore struct {
	triggers map[uuid.UUID]*entities.CueCardTrigger
	updated  *entities.CueCardTrigger
}

func newFakeInsightStore() *fakeInsightStore {
	return &fakeInsightStore{triggers: make(map[uuid.UUID]*entities.CueCardTrigger)}
}

func (s *fakeInsightStore) SaveNudge(ctx context.Context, nudge *entities.Nudge) error {
	return nil
}

func (s *fakeInsightStore) ListNudgesByCall(ctx context.Context, callID uuid.UUID) ([]entities.Nudge, error) {
	return nil, nil
}

func (s *fakeInsightStore) SaveTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error {
	s.triggers[trigger.ID] = trigger
	return nil
}

func (s *fakeInsightStore) GetTriggerByID(ctx context.Context, id uuid.UUID) (*entities.CueCardTrigger, error) {
	tr, ok := s.triggers[id]
	if !ok {
		return nil, fmt.Errorf("trigger %s not found", id)
	}
	return tr, nil
}

func (s *fakeInsightStore) UpdateTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error {
	s.triggers[trigger.ID] = trigger
	s.updated = trigger
	return nil
}

func (s *fakeInsightStore) ListTriggersByCall(ctx context.Context, callID uuid.UUID) ([]entities.CueCardTrigger, error) {
	var out []entities.CueCardTrigger
	for _, tr := range s.triggers {
		if tr.CallID == callID {
			out = append(out, *tr)
		}
	}
	return out, nil
}

func (s *fakeInsightStore) ListStoredCards(ctx context.Context, category entities.CueCategory) ([]entities.StoredCueCard, error) {
	return nil, nil
}

func (s *fakeInsightStore) SaveMetricsSnapshot(ctx context.Context, snap *entities.MetricsSnapshot) error {
	return nil
}

func newFeedbackContext(t *testing.T, triggerID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = pkgvalidator.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/cue-cards/"+triggerID+"/feedback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/cue-cards/:id/feedback")
	c.SetParamNames("id")
	c.SetParamValues(triggerID)
	return c, rec
}

func TestFeedbackPinsTrigger(t *testing.T) {
	store := newFakeInsightStore()
	trigger := entities.NewCueCardTrigger(uuid.New(), uuid.New(), entities.CuePricing, "too expensive", 0.9, 42)
	store.triggers[trigger.ID] = trigger

	h := NewCueCardHandler(store, nil)
	c, rec := newFeedbackContext(t, trigger.ID.String(), `{"status":"pinned","feedback":"helpful"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.updated == nil {
		t.Fatal("trigger was not persisted")
	}
	if store.updated.Status != entities.TriggerPinned {
		t.Fatalf("status = %q, want pinned", store.updated.Status)
	}
	if store.updated.Feedback != entities.FeedbackHelpful {
		t.Fatalf("feedback = %q, want helpful", store.updated.Feedback)
	}
}

func TestFeedbackDismissWithoutQualitySignal(t *testing.T) {
	store := newFakeInsightStore()
	trigger := entities.NewCueCardTrigger(uuid.New(), uuid.New(), entities.CueTiming, "maybe next quarter", 0.8, 300)
	store.triggers[trigger.ID] = trigger

	h := NewCueCardHandler(store, nil)
	c, rec := newFeedbackContext(t, trigger.ID.String(), `{"status":"dismissed"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.updated.Status != entities.TriggerDismissed {
		t.Fatalf("status = %q, want dismissed", store.updated.Status)
	}
	if store.updated.Feedback != "" {
		t.Fatalf("feedback should stay empty, got %q", store.updated.Feedback)
	}
}

func TestFeedbackUnknownTrigger(t *testing.T) {
	h := NewCueCardHandler(newFakeInsightStore(), nil)
	c, rec := newFeedbackContext(t, uuid.NewString(), `{"status":"pinned"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFeedbackRejectsInvalidStatus(t *testing.T) {
	store := newFakeInsightStore()
	trigger := entities.NewCueCardTrigger(uuid.New(), uuid.New(), entities.CueNeed, "not sure we need it", 0.7, 90)
	store.triggers[trigger.ID] = trigger

	h := NewCueCardHandler(store, nil)
	c, rec := newFeedbackContext(t, trigger.ID.String(), `{"status":"archived"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if store.updated != nil {
		t.Fatal("invalid status must not be persisted")
	}
}

func TestFeedbackRejectsBadTriggerID(t *testing.T) {
	h := NewCueCardHandler(newFakeInsightStore(), nil)
	c, rec := newFeedbackContext(t, "not-a-uuid", `{"status":"pinned"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFeedbackResponseCarriesUpdatedTrigger(t *testing.T) {
	store := newFakeInsightStore()
	trigger := entities.NewCueCardTrigger(uuid.New(), uuid.New(), entities.CueCompetitor, "we're also looking at X", 0.85, 120)
	store.triggers[trigger.ID] = trigger

	h := NewCueCardHandler(store, nil)
	c, rec := newFeedbackContext(t, trigger.ID.String(), `{"status":"pinned"}`)

	if err := h.Feedback(c); err != nil {
		t.Fatalf("feedback failed: %v", err)
	}

	var body struct {
		Data struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Data.ID != trigger.ID {
		t.Fatalf("response trigger id = %s, want %s", body.Data.ID, trigger.ID)
	}
	if body.Data.Status != "pinned" {
		t.Fatalf("response status = %q, want pinned", body.Data.Status)
	}
}
