package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// insightRepository implements the InsightRepository interface
type insightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *gorm.DB) repositories.InsightRepository {
	return &insightRepository{db: db}
}

// SaveNudge persists one nudge
func (r *insightRepository) SaveNudge(ctx context.Context, nudge *entities.Nudge) error {
	return r.db.WithContext(ctx).Create(nudge).Error
}

// ListNudgesByCall retrieves a call's nudges in emission order
func (r *insightRepository) ListNudgesByCall(ctx context.Context, callID uuid.UUID) ([]entities.Nudge, error) {
	var nudges []entities.Nudge
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("offset_sec ASC").
		Find(&nudges).Error

	if err != nil {
		return nil, err
	}
	return nudges, nil
}

// SaveTrigger persists one cue card trigger
func (r *insightRepository) SaveTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error {
	return r.db.WithContext(ctx).Create(trigger).Error
}

// GetTriggerByID retrieves a trigger by its ID
func (r *insightRepository) GetTriggerByID(ctx context.Context, id uuid.UUID) (*entities.CueCardTrigger, error) {
	var trigger entities.CueCardTrigger
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&trigger).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrTriggerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trigger, nil
}

// UpdateTrigger updates a trigger's status and feedback
func (r *insightRepository) UpdateTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error {
	return r.db.WithContext(ctx).Save(trigger).Error
}

// ListTriggersByCall retrieves a call's triggers in emission order
func (r *insightRepository) ListTriggersByCall(ctx context.Context, callID uuid.UUID) ([]entities.CueCardTrigger, error) {
	var triggers []entities.CueCardTrigger
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("offset_sec ASC").
		Find(&triggers).Error

	if err != nil {
		return nil, err
	}
	return triggers, nil
}

// ListStoredCards retrieves the curated cards for one category
func (r *insightRepository) ListStoredCards(ctx context.Context, category entities.CueCategory) ([]entities.StoredCueCard, error) {
	var cards []entities.StoredCueCard
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at ASC").
		Find(&cards).Error

	if err != nil {
		return nil, err
	}
	return cards, nil
}

// SaveMetricsSnapshot persists one periodic metrics reading
func (r *insightRepository) SaveMetricsSnapshot(ctx context.Context, snap *entities.MetricsSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}
