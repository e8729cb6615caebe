package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) repositories.ReportRepository {
	return &reportRepository{db: db}
}

// SaveReport persists the end-of-call report. One report per call; a
// regenerated report replaces the previous one.
func (r *reportRepository) SaveReport(ctx context.Context, report *entities.CallReport) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_id"}},
			UpdateAll: true,
		}).
		Create(report).Error
}

// GetReportByCall retrieves a call's report
func (r *reportRepository) GetReportByCall(ctx context.Context, callID uuid.UUID) (*entities.CallReport, error) {
	var report entities.CallReport
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		First(&report).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
