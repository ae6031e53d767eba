package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/studijbot/studij-api/internal/models"
	"github.com/studijbot/studij-api/internal/service"
)

type exportDeadlinesStub struct {
	rows []models.DeadlineWithSubject
}

func (s *exportDeadlinesStub) ListUpcomingBySemester(context.Context, string, time.Time) ([]models.DeadlineWithSubject, error) {
	return s.rows, nil
}

type exportSemestersStub struct{}

func (exportSemestersStub) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	return &models.Semester{ID: id, YearID: "y1", Number: 1}, nil
}

func TestExportHandlerRequiresSemesterID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/deadlines", nil)

	handler.Deadlines(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownloadsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deadlines := &exportDeadlinesStub{rows: []models.DeadlineWithSubject{
		{
			Deadline: models.Deadline{
				ID:        "d1",
				SubjectID: "s1",
				Type:      models.DeadlineTypeExam,
				DueDate:   time.Now().AddDate(0, 0, 4),
			},
			SubjectName:    "Operating Systems",
			SubjectAcronym: "OS",
		},
	}}
	svc := service.NewExportService(deadlines, exportSemestersStub{}, nil, nil, nil)
	handler := NewExportHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/deadlines?semester_id=sem1", nil)

	handler.Deadlines(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.Contains(rec.Body.String(), "Operating Systems (OS)"))
}
