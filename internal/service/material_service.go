package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type materialRepository interface {
	ListVisible(ctx context.Context, subjectID, guildID string) ([]models.Material, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

// CreateMaterialRequest describes payload for attaching a material to a
// subject. A nil GuildID publishes the material globally; a set GuildID
// keeps it private to that guild.
type CreateMaterialRequest struct {
	SubjectID   string  `json:"subject_id" validate:"required"`
	GuildID     *string `json:"guild_id"`
	URL         string  `json:"url" validate:"required,url"`
	Description string  `json:"description" validate:"required"`
}

// MaterialService orchestrates material workflows.
type MaterialService struct {
	repo      materialRepository
	subjects  subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService creates a material service instance.
func NewMaterialService(repo materialRepository, subjects subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// ListForSubject returns a subject's materials visible to the guild.
func (s *MaterialService) ListForSubject(ctx context.Context, subjectID, guildID string) ([]models.Material, error) {
	materials, err := s.repo.ListVisible(ctx, subjectID, guildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Create attaches a material to an existing subject. The scope marker is
// set once here and is immutable afterwards.
func (s *MaterialService) Create(ctx context.Context, req CreateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	material := &models.Material{
		SubjectID:   req.SubjectID,
		GuildID:     req.GuildID,
		URL:         req.URL,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	s.invalidate(ctx, req.SubjectID)
	return material, nil
}

// Delete removes a material.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	s.invalidate(ctx, material.SubjectID)
	return nil
}

func (s *MaterialService) invalidate(ctx context.Context, subjectID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("browse:subject:%s:*", subjectID)); err != nil {
		s.logger.Warn("failed to invalidate subject cache", zap.String("subject_id", subjectID), zap.Error(err))
	}
}
