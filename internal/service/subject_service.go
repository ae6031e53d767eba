package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByAcronym(ctx context.Context, semesterID, acronym string) (*models.Subject, error)
	ExistsByAcronym(ctx context.Context, semesterID, acronym string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectMaterialRepository interface {
	ListVisible(ctx context.Context, subjectID, guildID string) ([]models.Material, error)
}

type subjectDeadlineRepository interface {
	ListVisible(ctx context.Context, subjectID, guildID string, onOrAfter time.Time) ([]models.Deadline, error)
}

// CreateSubjectRequest describes payload for creating a subject.
type CreateSubjectRequest struct {
	SemesterID string  `json:"semester_id" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Acronym    string  `json:"acronym" validate:"required"`
	Professor  *string `json:"professor"`
	Assistants *string `json:"assistants"`
	ECTS       int     `json:"ects" validate:"required,min=1"`
}

// SubjectService orchestrates subject workflows and the browse view.
type SubjectService struct {
	repo      subjectRepository
	materials subjectMaterialRepository
	deadlines subjectDeadlineRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	now func() time.Time
}

// NewSubjectService creates a subject service instance.
func NewSubjectService(repo subjectRepository, materials subjectMaterialRepository, deadlines subjectDeadlineRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		repo:      repo,
		materials: materials,
		deadlines: deadlines,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create adds a subject under a semester, keeping the acronym unique
// within that semester.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	exists, err := s.repo.ExistsByAcronym(ctx, req.SemesterID, req.Acronym)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject acronym")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with that acronym already exists in the semester")
	}

	subject := &models.Subject{
		SemesterID: req.SemesterID,
		Name:       req.Name,
		Acronym:    req.Acronym,
		Professor:  req.Professor,
		Assistants: req.Assistants,
		ECTS:       req.ECTS,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidate(ctx, subject.ID)
	return subject, nil
}

// Get returns a subject by ID.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// ResolveAcronym finds a subject in a semester by its short code.
func (s *SubjectService) ResolveAcronym(ctx context.Context, semesterID, acronym string) (*models.Subject, error) {
	subject, err := s.repo.FindByAcronym(ctx, semesterID, acronym)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject")
	}
	return subject, nil
}

// Detail composes the browse view for one subject as seen by one guild:
// the subject plus its visible materials and upcoming visible deadlines.
// The per-(subject,guild) payload is cached when a cache is wired.
func (s *SubjectService) Detail(ctx context.Context, subjectID, guildID string) (*models.SubjectDetail, bool, error) {
	cacheKey := fmt.Sprintf("browse:subject:%s:%s", subjectID, guildID)
	if s.cache.Enabled() {
		var cached models.SubjectDetail
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}

	materials, err := s.materials.ListVisible(ctx, subjectID, guildID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}

	deadlines, err := s.deadlines.ListVisible(ctx, subjectID, guildID, truncateToDay(s.now()))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deadlines")
	}

	detail := &models.SubjectDetail{Subject: *subject, Materials: materials, Deadlines: deadlines}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, detail, 0)
	}
	return detail, false, nil
}

// Delete removes a subject and cascades to its materials and deadlines.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidate(ctx, id)
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

func (s *SubjectService) invalidate(ctx context.Context, subjectID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("browse:subject:%s:*", subjectID)); err != nil {
		s.logger.Warn("failed to invalidate subject cache", zap.String("subject_id", subjectID), zap.Error(err))
	}
}
