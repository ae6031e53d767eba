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

type guildConfigRepository interface {
	Find(ctx context.Context, guildID string) (*models.GuildConfig, error)
	Upsert(ctx context.Context, cfg *models.GuildConfig) error
	UpdateChannel(ctx context.Context, guildID string, channelID *string) error
}

type guildCatalogRepository interface {
	FindProgram(ctx context.Context, id string) (*models.StudyProgram, error)
	FindYear(ctx context.Context, id string) (*models.Year, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
}

// SetupRequest binds a guild to a catalog position in one atomic step.
type SetupRequest struct {
	ProgramID  string  `json:"program_id" validate:"required"`
	YearID     string  `json:"year_id" validate:"required"`
	SemesterID string  `json:"semester_id" validate:"required"`
	ChannelID  *string `json:"channel_id"`
}

// SetChannelRequest changes the notification destination independently.
type SetChannelRequest struct {
	ChannelID *string `json:"channel_id"`
}

// GuildConfigService owns guild setup and reconfiguration.
type GuildConfigService struct {
	repo      guildConfigRepository
	catalog   guildCatalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuildConfigService creates a guild config service.
func NewGuildConfigService(repo guildConfigRepository, catalog guildCatalogRepository, validate *validator.Validate, logger *zap.Logger) *GuildConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuildConfigService{repo: repo, catalog: catalog, validator: validate, logger: logger}
}

// Get returns a guild's configuration.
func (s *GuildConfigService) Get(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg, err := s.repo.Find(ctx, guildID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guild is not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guild config")
	}
	return cfg, nil
}

// Setup validates the full selection chain and commits it in one write.
// The three catalog references are checked for mutual parentage before
// anything is persisted, so the stored row is always internally consistent.
func (s *GuildConfigService) Setup(ctx context.Context, guildID string, req SetupRequest) (*models.GuildConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setup payload")
	}

	builder := NewSetupBuilder(guildID)
	if err := builder.ChooseProgram(ctx, s.catalog, req.ProgramID); err != nil {
		return nil, err
	}
	if err := builder.ChooseYear(ctx, s.catalog, req.YearID); err != nil {
		return nil, err
	}
	if err := builder.ChooseSemester(ctx, s.catalog, req.SemesterID); err != nil {
		return nil, err
	}
	builder.ChooseChannel(req.ChannelID)

	cfg, err := builder.Commit(ctx, s.repo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save guild config")
	}

	s.logger.Info("guild configured",
		zap.String("guild_id", guildID),
		zap.String("semester_id", cfg.SemesterID))
	return cfg, nil
}

// SetChannel updates the notification destination for an already
// configured guild. Passing nil disables notifications.
func (s *GuildConfigService) SetChannel(ctx context.Context, guildID string, req SetChannelRequest) (*models.GuildConfig, error) {
	if _, err := s.Get(ctx, guildID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateChannel(ctx, guildID, req.ChannelID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update channel")
	}
	return s.Get(ctx, guildID)
}

// SetupBuilder accumulates the dependent program -> year -> semester ->
// channel choices. Each step validates the chosen entity against the
// previous one; nothing touches the store until Commit.
type SetupBuilder struct {
	guildID    string
	programID  string
	yearID     string
	semesterID string
	channelID  *string
}

// NewSetupBuilder starts an empty selection chain for a guild.
func NewSetupBuilder(guildID string) *SetupBuilder {
	return &SetupBuilder{guildID: guildID}
}

// ChooseProgram pins the study program.
func (b *SetupBuilder) ChooseProgram(ctx context.Context, catalog guildCatalogRepository, programID string) error {
	if _, err := catalog.FindProgram(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "study program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study program")
	}
	b.programID = programID
	return nil
}

// ChooseYear pins the year; it must belong to the chosen program.
func (b *SetupBuilder) ChooseYear(ctx context.Context, catalog guildCatalogRepository, yearID string) error {
	if b.programID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "choose a program before a year")
	}
	year, err := catalog.FindYear(ctx, yearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}
	if year.ProgramID != b.programID {
		return appErrors.Clone(appErrors.ErrValidation, "year does not belong to the chosen program")
	}
	b.yearID = yearID
	return nil
}

// ChooseSemester pins the semester; it must belong to the chosen year.
func (b *SetupBuilder) ChooseSemester(ctx context.Context, catalog guildCatalogRepository, semesterID string) error {
	if b.yearID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "choose a year before a semester")
	}
	semester, err := catalog.FindSemester(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if semester.YearID != b.yearID {
		return appErrors.Clone(appErrors.ErrValidation, "semester does not belong to the chosen year")
	}
	b.semesterID = semesterID
	return nil
}

// ChooseChannel records the optional notification destination.
func (b *SetupBuilder) ChooseChannel(channelID *string) {
	b.channelID = channelID
}

// Commit writes the accumulated selection as one upsert. It refuses to
// run while the chain is incomplete.
func (b *SetupBuilder) Commit(ctx context.Context, repo guildConfigRepository) (*models.GuildConfig, error) {
	if b.programID == "" || b.yearID == "" || b.semesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setup selection is incomplete")
	}
	cfg := &models.GuildConfig{
		GuildID:    b.guildID,
		ProgramID:  b.programID,
		YearID:     b.yearID,
		SemesterID: b.semesterID,
		ChannelID:  b.channelID,
	}
	if err := repo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
