package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/errors"
	calldto "github.com/johnquangdev/call-copilot/internal/adapter/dto/call"
	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/internal/usecase/pipeline"
)

// Call handles call lifecycle and live transcript HTTP requests
type Call struct {
	orch     *pipeline.Orchestrator
	reports  repositories.ReportRepository
	insights repositories.InsightRepository
	logger   *zap.Logger
}

// NewCallHandler creates a new call handler
func NewCallHandler(orch *pipeline.Orchestrator, reports repositories.ReportRepository, insights repositories.InsightRepository, logger *zap.Logger) *Call {
	return &Call{
		orch:     orch,
		reports:  reports,
		insights: insights,
		logger:   logger,
	}
}

// StartCall handles POST /calls
func (h *Call) StartCall(c echo.Context) error {
	var req calldto.StartCallRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	var playbookID *uuid.UUID
	if req.PlaybookID != nil {
		id, err := uuid.Parse(*req.PlaybookID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("playbook_id must be a UUID"))
		}
		playbookID = &id
	}

	call, err := h.orch.StartCall(c.Request().Context(), req.SessionID, playbookID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, calldto.StartCallResponse{
		CallID:     call.ID,
		SessionID:  call.SessionID,
		PlaybookID: call.PlaybookID,
		StartedAt:  call.StartedAt,
	})
}

// IngestSegment handles POST /calls/:id/segments
func (h *Call) IngestSegment(c echo.Context) error {
	call, err := h.activeCallMatching(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req calldto.IngestSegmentRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}
	if req.EndMs < req.StartMs {
		return HandleError(h.logger, c, errors.ErrSegmentRejected("end_ms precedes start_ms"))
	}

	startAbs := call.StartedAt.Add(time.Duration(req.StartMs) * time.Millisecond)
	endAbs := call.StartedAt.Add(time.Duration(req.EndMs) * time.Millisecond)

	seg := h.orch.Ingest(c.Request().Context(), entities.Side(req.Side), req.Text, req.IsFinal, startAbs, endAbs)
	if seg == nil {
		return HandleError(h.logger, c, errors.ErrSegmentRejected("call is no longer accepting segments"))
	}

	return HandleSuccess(h.logger, c, calldto.IngestSegmentResponse{
		SegmentID:   seg.ID,
		IsFinal:     seg.IsFinal,
		StartOffset: seg.StartOffset,
		EndOffset:   seg.EndOffset,
	})
}

// Snapshot handles GET /calls/:id/snapshot
func (h *Call) Snapshot(c echo.Context) error {
	if _, err := h.activeCallMatching(c); err != nil {
		return HandleError(h.logger, c, err)
	}

	snap := h.orch.LiveSnapshot()
	if snap == nil {
		return HandleError(h.logger, c, errors.ErrCallNotActive())
	}
	return HandleSuccess(h.logger, c, snap)
}

// EndCall handles POST /calls/:id/end
func (h *Call) EndCall(c echo.Context) error {
	call, err := h.activeCallMatching(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.orch.EndCall(c.Request().Context()); err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	duration := time.Since(call.StartedAt).Seconds()
	if call.EndedAt != nil {
		duration = call.EndedAt.Sub(call.StartedAt).Seconds()
	}

	return HandleSuccess(h.logger, c, calldto.EndCallResponse{
		CallID:      call.ID,
		DurationSec: duration,
	})
}

// GetReport handles GET /calls/:id/report
func (h *Call) GetReport(c echo.Context) error {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("call id must be a UUID"))
	}
	if h.reports == nil {
		return HandleError(h.logger, c, errors.ErrReportNotFound(callID.String()))
	}

	report, err := h.reports.GetReportByCall(c.Request().Context(), callID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrReportNotFound(callID.String()))
	}
	return HandleSuccess(h.logger, c, report)
}

// ListTriggers handles GET /calls/:id/triggers
func (h *Call) ListTriggers(c echo.Context) error {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("call id must be a UUID"))
	}
	if h.insights == nil {
		return HandleSuccess(h.logger, c, []calldto.TriggerResponse{})
	}

	triggers, err := h.insights.ListTriggersByCall(c.Request().Context(), callID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list triggers", err))
	}

	out := make([]calldto.TriggerResponse, 0, len(triggers))
	for i := range triggers {
		out = append(out, calldto.NewTriggerResponse(&triggers[i]))
	}
	return HandleSuccess(h.logger, c, out)
}

// activeCallMatching resolves the :id path param against the currently
// active call
func (h *Call) activeCallMatching(c echo.Context) (*entities.CallState, error) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.ErrInvalidArgument("call id must be a UUID")
	}

	call := h.orch.ActiveCall()
	if call == nil {
		return nil, errors.ErrCallNotActive()
	}
	if call.ID != callID {
		return nil, errors.ErrCallNotFound(callID.String())
	}
	return call, nil
}
