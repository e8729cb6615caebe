package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	pkgvalidator "github.com/johnquangdev/call-copilot/pkg/validator"
)

type fakeReportStore struct {
	reports map[uuid.UUID]*entities.CallReport
}

func (s *fakeReportStore) SaveReport(ctx context.Context, report *entities.CallReport) error {
	s.reports[report.CallID] = report
	return nil
}

func (s *fakeReportStore) GetReportByCall(ctx context.Context, callID uuid.UUID) (*entities.CallReport, error) {
	r, ok := s.reports[callID]
	if !ok {
		return nil, fmt.Errorf("report for call %s not found", callID)
	}
	return r, nil
}

func newGetContext(t *testing.T, path, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = pkgvalidator.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(paramValue)
	return c, rec
}

func TestGetReportReturnsStoredReport(t *testing.T) {
	callID := uuid.New()
	report := entities.NewCallReport(callID)
	report.Bullets = []string{"Discussed onboarding timeline"}
	store := &fakeReportStore{reports: map[uuid.UUID]*entities.CallReport{callID: report}}

	h := NewCallHandler(nil, store, nil, nil)
	c, rec := newGetContext(t, "/v1/calls/"+callID.String()+"/report", callID.String())

	if err := h.GetReport(c); err != nil {
		t.Fatalf("get report failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data entities.CallReport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Data.Bullets) != 1 || body.Data.Bullets[0] != "Discussed onboarding timeline" {
		t.Fatalf("unexpected report payload: %+v", body.Data)
	}
}

func TestGetReportUnknownCall(t *testing.T) {
	store := &fakeReportStore{reports: map[uuid.UUID]*entities.CallReport{}}
	h := NewCallHandler(nil, store, nil, nil)
	c, rec := newGetContext(t, "/v1/calls/"+uuid.NewString()+"/report", uuid.NewString())

	if err := h.GetReport(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetReportRejectsBadCallID(t *testing.T) {
	h := NewCallHandler(nil, nil, nil, nil)
	c, rec := newGetContext(t, "/v1/calls/nope/report", "nope")

	if err := h.GetReport(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListTriggersReturnsCallTriggers(t *testing.T) {
	callID := uuid.New()
	store := newFakeInsightStore()
	trigger := entities.NewCueCardTrigger(callID, uuid.New(), entities.CuePricing, "too expensive", 0.9, 42)
	store.triggers[trigger.ID] = trigger
	other := entities.NewCueCardTrigger(uuid.New(), uuid.New(), entities.CueTrust, "never heard of you", 0.8, 10)
	store.triggers[other.ID] = other

	h := NewCallHandler(nil, nil, store, nil)
	c, rec := newGetContext(t, "/v1/calls/"+callID.String()+"/triggers", callID.String())

	if err := h.ListTriggers(c); err != nil {
		t.Fatalf("list triggers failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []struct {
			ID       uuid.UUID `json:"id"`
			Category string    `json:"category"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("got %d triggers, want 1", len(body.Data))
	}
	if body.Data[0].ID != trigger.ID || body.Data[0].Category != "pricing" {
		t.Fatalf("unexpected trigger payload: %+v", body.Data[0])
	}
}
