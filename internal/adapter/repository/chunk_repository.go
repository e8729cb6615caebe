package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
)

// chunkRepository implements the ChunkRepository interface
type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *gorm.DB) repositories.ChunkRepository {
	return &chunkRepository{db: db}
}

// SaveChunk persists one compressed chunk. The (call_id, chunk_index)
// pair is unique; a duplicate write from a racing sweep is a no-op.
func (r *chunkRepository) SaveChunk(ctx context.Context, chunk *entities.CompressedChunk) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_id"}, {Name: "chunk_index"}},
			DoNothing: true,
		}).
		Create(chunk).Error
}

// ListChunksByCall retrieves a call's chunks ordered by bucket index
func (r *chunkRepository) ListChunksByCall(ctx context.Context, callID uuid.UUID) ([]entities.CompressedChunk, error) {
	var chunks []entities.CompressedChunk
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("chunk_index ASC").
		Find(&chunks).Error

	if err != nil {
		return nil, err
	}
	return chunks, nil
}
