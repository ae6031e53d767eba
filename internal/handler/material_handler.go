package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studijbot/studij-api/internal/service"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
	"github.com/studijbot/studij-api/pkg/response"
)

// MaterialHandler handles study material endpoints.
type MaterialHandler struct {
	service *service.MaterialService
}

// NewMaterialHandler constructs a material handler.
func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

// ListForSubject godoc
// @Summary List materials visible to a guild for a subject
// @Tags Materials
// @Produce json
// @Param id path string true "Subject ID"
// @Param guild_id query string false "Guild scope for private entries"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/materials [get]
func (h *MaterialHandler) ListForSubject(c *gin.Context) {
	materials, err := h.service.ListForSubject(c.Request.Context(), c.Param("id"), c.Query("guild_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Create godoc
// @Summary Create material
// @Tags Materials
// @Accept json
// @Produce json
// @Param payload body service.CreateMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	material, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Delete godoc
// @Summary Delete material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
