package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studijbot/studij-api/internal/models"
)

// MaterialRepository handles persistence for learning materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository instantiates a material repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// ListVisible returns a subject's materials visible to the given guild:
// globally scoped rows plus rows private to that guild.
func (r *MaterialRepository) ListVisible(ctx context.Context, subjectID, guildID string) ([]models.Material, error) {
	const query = `SELECT id, subject_id, guild_id, url, description, created_at FROM materials WHERE subject_id = $1 AND (guild_id IS NULL OR guild_id = $2) ORDER BY created_at ASC`
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, subjectID, guildID); err != nil {
		return nil, fmt.Errorf("list visible materials: %w", err)
	}
	return materials, nil
}

// FindByID loads a material by identifier.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, subject_id, guild_id, url, description, created_at FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create inserts a new material. The scope marker is written once here and
// never updated afterwards.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, subject_id, guild_id, url, description, created_at) VALUES (:id, :subject_id, :guild_id, :url, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Delete removes a material permanently.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
