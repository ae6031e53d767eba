package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studijbot/studij-api/internal/models"
	"github.com/studijbot/studij-api/pkg/export"
)

// ExportFormat enumerates supported export render targets.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportDeadlineRepository interface {
	ListUpcomingBySemester(ctx context.Context, semesterID string, from time.Time) ([]models.DeadlineWithSubject, error)
}

type exportSemesterRepository interface {
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export payload.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders deadline schedules as downloadable files.
type ExportService struct {
	deadlines exportDeadlineRepository
	semesters exportSemesterRepository
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(deadlines exportDeadlineRepository, semesters exportSemesterRepository, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		deadlines: deadlines,
		semesters: semesters,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		now:       time.Now,
	}
}

// UpcomingDeadlines renders the upcoming deadlines of a semester in the requested format.
func (s *ExportService) UpcomingDeadlines(ctx context.Context, semesterID string, format ExportFormat) (*ExportResult, error) {
	semester, err := s.semesters.FindSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	from := truncateToDay(s.now())
	rows, err := s.deadlines.ListUpcomingBySemester(ctx, semesterID, from)
	if err != nil {
		return nil, err
	}

	dataset := buildDeadlineDataset(rows, from)
	title := fmt.Sprintf("Upcoming Deadlines (%s Semester)", models.SemesterName(semester.Number))

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("deadlines_%s_%s.%s", sanitizeFilename(semesterID), s.now().UTC().Format("20060102_150405"), format)
	return &ExportResult{
		Filename:    filename,
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildDeadlineDataset(rows []models.DeadlineWithSubject, from time.Time) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Subject":     fmt.Sprintf("%s (%s)", row.SubjectName, row.SubjectAcronym),
			"Type":        string(row.Type),
			"Due Date":    row.DueDate.Format("02. 01. 2006"),
			"Days Left":   fmt.Sprintf("%d", daysBetween(from, truncateToDay(row.DueDate))),
			"Description": row.Description,
		})
	}
	return export.Dataset{
		Headers: []string{"Subject", "Type", "Due Date", "Days Left", "Description"},
		Rows:    dataRows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
