package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
)

// ExportFormat names a score sheet rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	Title   string
}

// ExportResult is a rendered score sheet ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Format      ExportFormat
}

type classScoreSource interface {
	ClassScores(ctx context.Context, subjectID string) (*dto.ClassScoresResponse, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders class score sheets.
type ExportService struct {
	scores classScoreSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(scores classScoreSource, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{
		scores: scores,
		csv:    csv,
		pdf:    pdf,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ScoreSheet renders the score sheet of a subject in the requested format.
func (s *ExportService) ScoreSheet(ctx context.Context, subjectID string, format ExportFormat) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrExportDisabled
	}
	if format == "" {
		format = ExportFormatCSV
	}
	sheet, _, err := s.scores.ClassScores(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	dataset := s.buildDataset(sheet)

	var body []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	case ExportFormatPDF:
		body, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("render score sheet failed", zap.String("subject_id", subjectID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render score sheet")
	}

	return &ExportResult{
		Filename:    s.buildFilename(subjectID, format),
		ContentType: contentType,
		Body:        body,
		Format:      format,
	}, nil
}

func (s *ExportService) buildDataset(sheet *dto.ClassScoresResponse) export.Dataset {
	headers := []string{"Student", "Final score", "Absences", "Last note"}
	rows := make([]map[string]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		note := row.LastNote
		if note == "" {
			note = "---"
		}
		rows = append(rows, map[string]string{
			"Student":     row.StudentName,
			"Final score": row.Display,
			"Absences":    strconv.Itoa(row.Absences),
			"Last note":   note,
		})
	}
	title := s.cfg.Title
	if sheet.SubjectName != "" {
		if title != "" {
			title += " - "
		}
		title += sheet.SubjectName
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}

func (s *ExportService) buildFilename(subjectID string, format ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("scores_%s_%s.%s", sanitizeFilename(subjectID), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", `"`, "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
