package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/errors"
	calldto "github.com/johnquangdev/call-copilot/internal/adapter/dto/call"
	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// CueCard handles user actions on raised cue cards
type CueCard struct {
	insights repositories.InsightRepository
	logger   *zap.Logger
}

// NewCueCardHandler creates a new cue card handler
func NewCueCardHandler(insights repositories.InsightRepository, logger *zap.Logger) *CueCard {
	return &CueCard{
		insights: insights,
		logger:   logger,
	}
}

// Feedback handles POST /cue-cards/:id/feedback. Pinning keeps the card
// visible, dismissing hides it; either may carry a quality signal.
func (h *CueCard) Feedback(c echo.Context) error {
	triggerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("trigger id must be a UUID"))
	}

	var req calldto.TriggerFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	if h.insights == nil {
		return HandleError(h.logger, c, errors.ErrTriggerNotFound(triggerID.String()))
	}

	ctx := c.Request().Context()
	trigger, err := h.insights.GetTriggerByID(ctx, triggerID)
	if err != nil || trigger == nil {
		return HandleError(h.logger, c, errors.ErrTriggerNotFound(triggerID.String()))
	}

	trigger.Status = entities.TriggerStatus(req.Status)
	if req.Feedback != "" {
		trigger.Feedback = entities.TriggerFeedback(req.Feedback)
	}

	if err := h.insights.UpdateTrigger(ctx, trigger); err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("update trigger", err))
	}

	if h.logger != nil {
		h.logger.Info("cue card feedback recorded",
			zap.String("trigger_id", triggerID.String()),
			zap.String("status", req.Status),
		)
	}

	return HandleSuccess(h.logger, c, calldto.NewTriggerResponse(trigger))
}
