package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studijbot/studij-api/internal/service"
	appErrors "github.com/studijbot/studij-api/pkg/errors"
	"github.com/studijbot/studij-api/pkg/response"
)

// ExportHandler serves rendered deadline exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Deadlines godoc
// @Summary Download upcoming deadlines of a semester as CSV or PDF
// @Tags Export
// @Produce octet-stream
// @Param semester_id query string true "Semester ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /export/deadlines [get]
func (h *ExportHandler) Deadlines(c *gin.Context) {
	semesterID := c.Query("semester_id")
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester_id is required"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.UpcomingDeadlines(c.Request.Context(), semesterID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
