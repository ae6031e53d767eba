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

// dueDateLayout is the wire format for deadline dates; no time-of-day.
const dueDateLayout = "2006-01-02"

type deadlineRepository interface {
	ListVisible(ctx context.Context, subjectID, guildID string, onOrAfter time.Time) ([]models.Deadline, error)
	ListUpcomingBySemester(ctx context.Context, semesterID string, onOrAfter time.Time) ([]models.DeadlineWithSubject, error)
	FindByID(ctx context.Context, id string) (*models.Deadline, error)
	Create(ctx context.Context, deadline *models.Deadline) error
	Delete(ctx context.Context, id string) error
}

// CreateDeadlineRequest describes payload for creating a deadline. The
// scope marker semantics follow materials: nil GuildID is global.
type CreateDeadlineRequest struct {
	SubjectID   string  `json:"subject_id" validate:"required"`
	GuildID     *string `json:"guild_id"`
	Type        string  `json:"type" validate:"required"`
	DueDate     string  `json:"due_date" validate:"required"`
	Description string  `json:"description"`
}

// DeadlineService orchestrates deadline workflows for the dashboard.
type DeadlineService struct {
	repo      deadlineRepository
	subjects  subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	now func() time.Time
}

// NewDeadlineService creates a deadline service instance.
func NewDeadlineService(repo deadlineRepository, subjects subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DeadlineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadlineService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ListForSubject returns a subject's upcoming deadlines visible to the guild.
func (s *DeadlineService) ListForSubject(ctx context.Context, subjectID, guildID string) ([]models.Deadline, error) {
	deadlines, err := s.repo.ListVisible(ctx, subjectID, guildID, truncateToDay(s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deadlines")
	}
	return deadlines, nil
}

// ListUpcoming returns every upcoming deadline of a semester with subject
// names, for the dashboard calendar and exports.
func (s *DeadlineService) ListUpcoming(ctx context.Context, semesterID string) ([]models.DeadlineWithSubject, error) {
	deadlines, err := s.repo.ListUpcomingBySemester(ctx, semesterID, truncateToDay(s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming deadlines")
	}
	return deadlines, nil
}

// Create validates type and date and inserts a deadline with both
// notification flags unset.
func (s *DeadlineService) Create(ctx context.Context, req CreateDeadlineRequest) (*models.Deadline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}

	deadlineType := models.DeadlineType(req.Type)
	if !models.ValidDeadlineType(deadlineType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be one of EXAM, COLLOQUIUM, LAB, SUBMISSION")
	}

	dueDate, err := time.Parse(dueDateLayout, req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must use the YYYY-MM-DD format")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	deadline := &models.Deadline{
		SubjectID:   req.SubjectID,
		GuildID:     req.GuildID,
		Type:        deadlineType,
		DueDate:     dueDate,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, deadline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deadline")
	}
	s.invalidate(ctx, req.SubjectID)
	return deadline, nil
}

// Delete removes a deadline.
func (s *DeadlineService) Delete(ctx context.Context, id string) error {
	deadline, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "deadline not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deadline")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete deadline")
	}
	s.invalidate(ctx, deadline.SubjectID)
	return nil
}

func (s *DeadlineService) invalidate(ctx context.Context, subjectID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("browse:subject:%s:*", subjectID)); err != nil {
		s.logger.Warn("failed to invalidate subject cache", zap.String("subject_id", subjectID), zap.Error(err))
	}
}
