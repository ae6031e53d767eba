package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studijbot/studij-api/internal/models"
	"github.com/studijbot/studij-api/internal/service"
)

type guildRepoFake struct {
	configs map[string]models.GuildConfig
}

func (f *guildRepoFake) Find(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	if cfg, ok := f.configs[guildID]; ok {
		return &cfg, nil
	}
	return nil, sql.ErrNoRows
}

func (f *guildRepoFake) Upsert(ctx context.Context, cfg *models.GuildConfig) error {
	if f.configs == nil {
		f.configs = make(map[string]models.GuildConfig)
	}
	f.configs[cfg.GuildID] = *cfg
	return nil
}

func (f *guildRepoFake) UpdateChannel(ctx context.Context, guildID string, channelID *string) error {
	cfg := f.configs[guildID]
	cfg.ChannelID = channelID
	f.configs[guildID] = cfg
	return nil
}

type catalogFake struct{}

func (catalogFake) FindProgram(ctx context.Context, id string) (*models.StudyProgram, error) {
	if id != "p1" {
		return nil, sql.ErrNoRows
	}
	return &models.StudyProgram{ID: "p1", Name: "Computer Science"}, nil
}

func (catalogFake) FindYear(ctx context.Context, id string) (*models.Year, error) {
	if id != "y1" {
		return nil, sql.ErrNoRows
	}
	return &models.Year{ID: "y1", ProgramID: "p1", Number: 1}, nil
}

func (catalogFake) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	if id != "sem1" {
		return nil, sql.ErrNoRows
	}
	return &models.Semester{ID: "sem1", YearID: "y1", Number: 1}, nil
}

func newGuildConfigHandler(repo *guildRepoFake) *GuildConfigHandler {
	svc := service.NewGuildConfigService(repo, catalogFake{}, nil, nil)
	return NewGuildConfigHandler(svc)
}

func TestGuildConfigHandlerSetupRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGuildConfigHandler(&guildRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/guilds/g1/setup", strings.NewReader("{not json"))
	c.Params = gin.Params{{Key: "id", Value: "g1"}}

	handler.Setup(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuildConfigHandlerSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &guildRepoFake{}
	handler := newGuildConfigHandler(repo)

	body := `{"program_id":"p1","year_id":"y1","semester_id":"sem1"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/guilds/g1/setup", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "g1"}}

	handler.Setup(c)

	require.Equal(t, http.StatusOK, rec.Code)
	stored, ok := repo.configs["g1"]
	require.True(t, ok)
	assert.Equal(t, "sem1", stored.SemesterID)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "g1", envelope.Data["guild_id"])
}

func TestGuildConfigHandlerGetUnknownGuild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGuildConfigHandler(&guildRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/guilds/g1/config", nil)
	c.Params = gin.Params{{Key: "id", Value: "g1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
