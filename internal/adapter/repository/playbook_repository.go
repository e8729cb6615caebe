package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// playbookRepository implements the PlaybookRepository interface
type playbookRepository struct {
	db *gorm.DB
}

// NewPlaybookRepository creates a new playbook repository
func NewPlaybookRepository(db *gorm.DB) repositories.PlaybookRepository {
	return &playbookRepository{db: db}
}

// GetDefinitionByID retrieves one methodology definition
func (r *playbookRepository) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*entities.PlaybookDefinition, error) {
	var def entities.PlaybookDefinition
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&def).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrPlaybookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// GetDefaultDefinition retrieves the designated default methodology
func (r *playbookRepository) GetDefaultDefinition(ctx context.Context) (*entities.PlaybookDefinition, error) {
	var def entities.PlaybookDefinition
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("created_at ASC").
		First(&def).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrPlaybookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// SaveSession creates a per-call coverage session
func (r *playbookRepository) SaveSession(ctx context.Context, session *entities.PlaybookSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// UpdateSession updates a session's coverage snapshot
func (r *playbookRepository) UpdateSession(ctx context.Context, session *entities.PlaybookSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
