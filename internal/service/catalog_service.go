package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type catalogRepository interface {
	ListPrograms(ctx context.Context) ([]models.StudyProgram, error)
	FindProgram(ctx context.Context, id string) (*models.StudyProgram, error)
	ExistsProgramByName(ctx context.Context, name string) (bool, error)
	CreateProgram(ctx context.Context, program *models.StudyProgram) error
	DeleteProgram(ctx context.Context, id string) error
	ListYears(ctx context.Context, programID string) ([]models.Year, error)
	FindYear(ctx context.Context, id string) (*models.Year, error)
	CreateYear(ctx context.Context, year *models.Year) error
	ListSemesters(ctx context.Context, yearID string) ([]models.Semester, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	CreateSemester(ctx context.Context, semester *models.Semester) error
}

// CreateProgramRequest describes payload for creating a study program.
type CreateProgramRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateYearRequest adds a year to a program.
type CreateYearRequest struct {
	ProgramID string `json:"program_id" validate:"required"`
	Number    int    `json:"number" validate:"required,min=1"`
}

// CreateSemesterRequest adds a semester to a year.
type CreateSemesterRequest struct {
	YearID string `json:"year_id" validate:"required"`
	Number int    `json:"number" validate:"required,min=1,max=2"`
}

// CatalogService orchestrates the program/year/semester hierarchy.
type CatalogService struct {
	repo      catalogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService creates a catalog service instance.
func NewCatalogService(repo catalogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListPrograms returns all study programs.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]models.StudyProgram, error) {
	programs, err := s.repo.ListPrograms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// CreateProgram adds a study program enforcing the unique-name rule.
func (s *CatalogService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*models.StudyProgram, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}

	exists, err := s.repo.ExistsProgramByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a program with that name already exists")
	}

	program := &models.StudyProgram{Name: req.Name}
	if err := s.repo.CreateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.invalidateBrowseCache(ctx)
	return program, nil
}

// DeleteProgram removes a program and its whole subtree.
func (s *CatalogService) DeleteProgram(ctx context.Context, id string) error {
	if _, err := s.repo.FindProgram(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "study program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if err := s.repo.DeleteProgram(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	s.invalidateBrowseCache(ctx)
	s.logger.Info("study program deleted", zap.String("program_id", id))
	return nil
}

// ListYears returns the years of a program.
func (s *CatalogService) ListYears(ctx context.Context, programID string) ([]models.Year, error) {
	years, err := s.repo.ListYears(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list years")
	}
	return years, nil
}

// CreateYear adds a year under an existing program.
func (s *CatalogService) CreateYear(ctx context.Context, req CreateYearRequest) (*models.Year, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid year payload")
	}
	if _, err := s.repo.FindProgram(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	year := &models.Year{ProgramID: req.ProgramID, Number: req.Number}
	if err := s.repo.CreateYear(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create year")
	}
	s.invalidateBrowseCache(ctx)
	return year, nil
}

// ListSemesters returns the semesters of a year.
func (s *CatalogService) ListSemesters(ctx context.Context, yearID string) ([]models.Semester, error) {
	semesters, err := s.repo.ListSemesters(ctx, yearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, nil
}

// CreateSemester adds a semester under an existing year.
func (s *CatalogService) CreateSemester(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if _, err := s.repo.FindYear(ctx, req.YearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}

	semester := &models.Semester{YearID: req.YearID, Number: req.Number}
	if err := s.repo.CreateSemester(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	s.invalidateBrowseCache(ctx)
	return semester, nil
}

func (s *CatalogService) invalidateBrowseCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "browse:*"); err != nil {
		s.logger.Warn("failed to invalidate browse cache", zap.Error(err))
	}
}
