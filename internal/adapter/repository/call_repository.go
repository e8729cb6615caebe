package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// callRepository implements the CallRepository interface
type callRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) repositories.CallRepository {
	return &callRepository{db: db}
}

// CreateCall creates a new call record
func (r *callRepository) CreateCall(ctx context.Context, call *entities.CallState) error {
	return r.db.WithContext(ctx).Create(call).Error
}

// UpdateCall updates an existing call record
func (r *callRepository) UpdateCall(ctx context.Context, call *entities.CallState) error {
	return r.db.WithContext(ctx).Save(call).Error
}

// GetCallByID retrieves a call by its ID
func (r *callRepository) GetCallByID(ctx context.Context, id uuid.UUID) (*entities.CallState, error) {
	var call entities.CallState
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&call).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// SaveSegment persists one finalized segment
func (r *callRepository) SaveSegment(ctx context.Context, seg *entities.Segment) error {
	return r.db.WithContext(ctx).Create(seg).Error
}

// MarkSegmentProcessed flags a segment as analyzed
func (r *callRepository) MarkSegmentProcessed(ctx context.Context, segmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Segment{}).
		Where("id = ?", segmentID).
		Update("processed", true).Error
}

// ListSegmentsByCall retrieves all finalized segments of a call in
// transcript order
func (r *callRepository) ListSegmentsByCall(ctx context.Context, callID uuid.UUID) ([]entities.Segment, error) {
	var segments []entities.Segment
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("start_offset ASC").
		Find(&segments).Error

	if err != nil {
		return nil, err
	}
	return segments, nil
}
