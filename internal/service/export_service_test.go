package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studijbot/studij-api/internal/models"
	"github.com/studijbot/studij-api/pkg/export"
)

type exportDeadlineRepoStub struct {
	rows []models.DeadlineWithSubject
}

func (s *exportDeadlineRepoStub) ListUpcomingBySemester(ctx context.Context, semesterID string, from time.Time) ([]models.DeadlineWithSubject, error) {
	return s.rows, nil
}

type pdfRendererStub struct {
	titles []string
}

func (s *pdfRendererStub) Render(data export.Dataset, title string) ([]byte, error) {
	s.titles = append(s.titles, title)
	return []byte("%PDF-1.4 stub"), nil
}

func exportFixtureRows(due time.Time) []models.DeadlineWithSubject {
	return []models.DeadlineWithSubject{
		{
			Deadline: models.Deadline{
				ID:          "d1",
				SubjectID:   "s1",
				Type:        models.DeadlineTypeExam,
				DueDate:     due,
				Description: "Midterm",
			},
			SubjectName:    "Operating Systems",
			SubjectAcronym: "OS",
		},
	}
}

func TestExportServiceRendersCSV(t *testing.T) {
	now := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	deadlines := &exportDeadlineRepoStub{rows: exportFixtureRows(time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC))}
	svc := NewExportService(deadlines, newCatalogStub(), nil, nil, nil)
	svc.now = func() time.Time { return now }

	result, err := svc.UpcomingDeadlines(context.Background(), "sem1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"), "filename %q", result.Filename)

	body := string(result.Payload)
	assert.Contains(t, body, "Subject,Type,Due Date,Days Left,Description")
	assert.Contains(t, body, "Operating Systems (OS)")
	assert.Contains(t, body, "EXAM")
	assert.Contains(t, body, "17. 09. 2026")
	assert.Contains(t, body, ",7,")
}

func TestExportServiceRendersPDFWithSemesterTitle(t *testing.T) {
	deadlines := &exportDeadlineRepoStub{rows: exportFixtureRows(time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC))}
	pdf := &pdfRendererStub{}
	svc := NewExportService(deadlines, newCatalogStub(), nil, nil, pdf)

	result, err := svc.UpcomingDeadlines(context.Background(), "sem1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	require.Len(t, pdf.titles, 1)
	assert.Contains(t, pdf.titles[0], "Winter")
}

func TestExportServiceRejectsUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&exportDeadlineRepoStub{}, newCatalogStub(), nil, nil, nil)

	_, err := svc.UpcomingDeadlines(context.Background(), "sem1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExportServiceUnknownSemester(t *testing.T) {
	svc := NewExportService(&exportDeadlineRepoStub{}, newCatalogStub(), nil, nil, nil)

	_, err := svc.UpcomingDeadlines(context.Background(), "missing", ExportFormatCSV)
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "winter_2026", sanitizeFilename("winter 2026"))
	assert.Equal(t, "a-b-c", sanitizeFilename(`a/b\c`))
}
