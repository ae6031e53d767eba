package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studijbot/studij-api/internal/service"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
	"github.com/studijbot/studij-api/pkg/response"
)

// DeadlineHandler handles deadline endpoints.
type DeadlineHandler struct {
	service *service.DeadlineService
}

// NewDeadlineHandler constructs a deadline handler.
func NewDeadlineHandler(svc *service.DeadlineService) *DeadlineHandler {
	return &DeadlineHandler{service: svc}
}

// ListForSubject godoc
// @Summary List deadlines visible to a guild for a subject
// @Tags Deadlines
// @Produce json
// @Param id path string true "Subject ID"
// @Param guild_id query string false "Guild scope for private entries"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/deadlines [get]
func (h *DeadlineHandler) ListForSubject(c *gin.Context) {
	deadlines, err := h.service.ListForSubject(c.Request.Context(), c.Param("id"), c.Query("guild_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deadlines, nil)
}

// ListUpcoming godoc
// @Summary List upcoming deadlines for a semester
// @Tags Deadlines
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/deadlines [get]
func (h *DeadlineHandler) ListUpcoming(c *gin.Context) {
	deadlines, err := h.service.ListUpcoming(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deadlines, nil)
}

// Create godoc
// @Summary Create deadline
// @Tags Deadlines
// @Accept json
// @Produce json
// @Param payload body service.CreateDeadlineRequest true "Deadline payload"
// @Success 201 {object} response.Envelope
// @Router /deadlines [post]
func (h *DeadlineHandler) Create(c *gin.Context) {
	var req service.CreateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deadline, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deadline)
}

// Delete godoc
// @Summary Delete deadline
// @Tags Deadlines
// @Produce json
// @Param id path string true "Deadline ID"
// @Success 204
// @Router /deadlines/{id} [delete]
func (h *DeadlineHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
