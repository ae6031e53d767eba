package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studijbot/studij-api/internal/service"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
	"github.com/studijbot/studij-api/pkg/response"
)

// GuildConfigHandler handles per-guild configuration endpoints.
type GuildConfigHandler struct {
	service *service.GuildConfigService
}

// NewGuildConfigHandler constructs a guild config handler.
func NewGuildConfigHandler(svc *service.GuildConfigService) *GuildConfigHandler {
	return &GuildConfigHandler{service: svc}
}

// Get godoc
// @Summary Get guild configuration
// @Tags Guilds
// @Produce json
// @Param id path string true "Guild ID"
// @Success 200 {object} response.Envelope
// @Router /guilds/{id}/config [get]
func (h *GuildConfigHandler) Get(c *gin.Context) {
	config, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Setup godoc
// @Summary Bind a guild to a program, year and semester
// @Tags Guilds
// @Accept json
// @Produce json
// @Param id path string true "Guild ID"
// @Param payload body service.SetupRequest true "Setup payload"
// @Success 200 {object} response.Envelope
// @Router /guilds/{id}/setup [put]
func (h *GuildConfigHandler) Setup(c *gin.Context) {
	var req service.SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.service.Setup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// SetChannel godoc
// @Summary Set the notification channel for a guild
// @Tags Guilds
// @Accept json
// @Produce json
// @Param id path string true "Guild ID"
// @Param payload body service.SetChannelRequest true "Channel payload"
// @Success 200 {object} response.Envelope
// @Router /guilds/{id}/channel [put]
func (h *GuildConfigHandler) SetChannel(c *gin.Context) {
	var req service.SetChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	config, err := h.service.SetChannel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}
