package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studijbot/studij-api/internal/models"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
)

type guildConfigRepoStub struct {
	configs map[string]models.GuildConfig
	upserts int
}

func (s *guildConfigRepoStub) Find(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	if cfg, ok := s.configs[guildID]; ok {
		return &cfg, nil
	}
	return nil, sql.ErrNoRows
}

func (s *guildConfigRepoStub) Upsert(ctx context.Context, cfg *models.GuildConfig) error {
	if s.configs == nil {
		s.configs = make(map[string]models.GuildConfig)
	}
	s.configs[cfg.GuildID] = *cfg
	s.upserts++
	return nil
}

func (s *guildConfigRepoStub) UpdateChannel(ctx context.Context, guildID string, channelID *string) error {
	cfg, ok := s.configs[guildID]
	if !ok {
		return sql.ErrNoRows
	}
	cfg.ChannelID = channelID
	s.configs[guildID] = cfg
	return nil
}

type catalogStub struct {
	programs  map[string]models.StudyProgram
	years     map[string]models.Year
	semesters map[string]models.Semester
}

func (s *catalogStub) FindProgram(ctx context.Context, id string) (*models.StudyProgram, error) {
	if p, ok := s.programs[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *catalogStub) FindYear(ctx context.Context, id string) (*models.Year, error) {
	if y, ok := s.years[id]; ok {
		return &y, nil
	}
	return nil, sql.ErrNoRows
}

func (s *catalogStub) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	if sem, ok := s.semesters[id]; ok {
		return &sem, nil
	}
	return nil, sql.ErrNoRows
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		programs: map[string]models.StudyProgram{
			"p1": {ID: "p1", Name: "Computer Science"},
		},
		years: map[string]models.Year{
			"y1":      {ID: "y1", ProgramID: "p1", Number: 1},
			"y-other": {ID: "y-other", ProgramID: "p-other", Number: 1},
		},
		semesters: map[string]models.Semester{
			"sem1":      {ID: "sem1", YearID: "y1", Number: 1},
			"sem-other": {ID: "sem-other", YearID: "y-other", Number: 1},
		},
	}
}

func TestGuildConfigSetupCommitsWholeChainAtomically(t *testing.T) {
	repo := &guildConfigRepoStub{}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	channel := "c1"
	cfg, err := svc.Setup(context.Background(), "g1", SetupRequest{
		ProgramID:  "p1",
		YearID:     "y1",
		SemesterID: "sem1",
		ChannelID:  &channel,
	})
	require.NoError(t, err)
	assert.Equal(t, "sem1", cfg.SemesterID)
	assert.Equal(t, 1, repo.upserts)

	stored := repo.configs["g1"]
	assert.Equal(t, "p1", stored.ProgramID)
	assert.Equal(t, "y1", stored.YearID)
	require.NotNil(t, stored.ChannelID)
	assert.Equal(t, "c1", *stored.ChannelID)
}

func TestGuildConfigSetupRejectsMismatchedParentage(t *testing.T) {
	repo := &guildConfigRepoStub{}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	_, err := svc.Setup(context.Background(), "g1", SetupRequest{
		ProgramID:  "p1",
		YearID:     "y-other",
		SemesterID: "sem1",
	})
	require.Error(t, err)
	assert.Zero(t, repo.upserts)

	_, err = svc.Setup(context.Background(), "g1", SetupRequest{
		ProgramID:  "p1",
		YearID:     "y1",
		SemesterID: "sem-other",
	})
	require.Error(t, err)
	assert.Zero(t, repo.upserts)
}

func TestGuildConfigSetupUnknownProgram(t *testing.T) {
	repo := &guildConfigRepoStub{}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	_, err := svc.Setup(context.Background(), "g1", SetupRequest{
		ProgramID:  "missing",
		YearID:     "y1",
		SemesterID: "sem1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Zero(t, repo.upserts)
}

func TestGuildConfigSetChannelKeepsCatalogBinding(t *testing.T) {
	channel := "c1"
	repo := &guildConfigRepoStub{configs: map[string]models.GuildConfig{
		"g1": {GuildID: "g1", ProgramID: "p1", YearID: "y1", SemesterID: "sem1", ChannelID: &channel},
	}}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	newChannel := "c2"
	cfg, err := svc.SetChannel(context.Background(), "g1", SetChannelRequest{ChannelID: &newChannel})
	require.NoError(t, err)
	require.NotNil(t, cfg.ChannelID)
	assert.Equal(t, "c2", *cfg.ChannelID)
	assert.Equal(t, "sem1", cfg.SemesterID)
}

func TestGuildConfigSetChannelNilDisablesNotifications(t *testing.T) {
	channel := "c1"
	repo := &guildConfigRepoStub{configs: map[string]models.GuildConfig{
		"g1": {GuildID: "g1", ProgramID: "p1", YearID: "y1", SemesterID: "sem1", ChannelID: &channel},
	}}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	cfg, err := svc.SetChannel(context.Background(), "g1", SetChannelRequest{ChannelID: nil})
	require.NoError(t, err)
	assert.Nil(t, cfg.ChannelID)
}

func TestGuildConfigSetChannelRequiresExistingConfig(t *testing.T) {
	repo := &guildConfigRepoStub{}
	svc := NewGuildConfigService(repo, newCatalogStub(), nil, nil)

	channel := "c1"
	_, err := svc.SetChannel(context.Background(), "unconfigured", SetChannelRequest{ChannelID: &channel})
	require.Error(t, err)
}

func TestSetupBuilderEnforcesStepOrder(t *testing.T) {
	catalog := newCatalogStub()
	builder := NewSetupBuilder("g1")

	err := builder.ChooseYear(context.Background(), catalog, "y1")
	require.Error(t, err)

	err = builder.ChooseSemester(context.Background(), catalog, "sem1")
	require.Error(t, err)

	_, err = builder.Commit(context.Background(), &guildConfigRepoStub{})
	require.Error(t, err)
}
