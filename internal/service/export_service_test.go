package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
)

type classScoresStub struct {
	sheet *dto.ClassScoresResponse
	err   error
}

func (s classScoresStub) ClassScores(ctx context.Context, subjectID string) (*dto.ClassScoresResponse, bool, error) {
	return s.sheet, false, s.err
}

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) {
	return nil, errors.New("renderer broke")
}

func sampleSheet() *dto.ClassScoresResponse {
	return &dto.ClassScoresResponse{
		SubjectID:   "subject-1",
		SubjectName: "English",
		Rows: []models.StudentScoreRow{
			{StudentID: "student-1", StudentName: "Ali", Display: "14.00", Absences: 2, LastNote: "good work"},
			{StudentID: "student-2", StudentName: "Sara", Display: "---"},
		},
	}
}

func newExportServiceForTest(source classScoreSource, cfg ExportConfig) *ExportService {
	svc := NewExportService(source, cfg, zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 12, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceScoreSheetCSV(t *testing.T) {
	svc := newExportServiceForTest(classScoresStub{sheet: sampleSheet()}, ExportConfig{Enabled: true, Title: "Score sheet"})

	result, err := svc.ScoreSheet(context.Background(), "subject-1", "")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, result.Format)
	assert.Equal(t, "scores_subject-1_20250112_093000.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	body := strings.TrimPrefix(string(result.Body), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Final score,Absences,Last note", lines[0])
	assert.Equal(t, "Ali,14.00,2,good work", lines[1])
	assert.Equal(t, "Sara,---,0,---", lines[2])
}

func TestExportServiceScoreSheetPDF(t *testing.T) {
	svc := newExportServiceForTest(classScoresStub{sheet: sampleSheet()}, ExportConfig{Enabled: true})

	result, err := svc.ScoreSheet(context.Background(), "subject-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Body), "%PDF"))
}

func TestExportServiceErrors(t *testing.T) {
	ctx := context.Background()

	disabled := newExportServiceForTest(classScoresStub{sheet: sampleSheet()}, ExportConfig{})
	_, err := disabled.ScoreSheet(ctx, "subject-1", ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrExportDisabled)

	svc := newExportServiceForTest(classScoresStub{sheet: sampleSheet()}, ExportConfig{Enabled: true})
	_, err = svc.ScoreSheet(ctx, "subject-1", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))

	missing := newExportServiceForTest(classScoresStub{err: appErrors.ErrSubjectNotFound}, ExportConfig{Enabled: true})
	_, err = missing.ScoreSheet(ctx, "subject-9", ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrSubjectNotFound)

	broken := NewExportService(classScoresStub{sheet: sampleSheet()}, ExportConfig{Enabled: true}, zap.NewNop(), failingRenderer{}, nil)
	_, err = broken.ScoreSheet(ctx, "subject-1", ExportFormatCSV)
	assert.Equal(t, appErrors.ErrInternal.Code, errCode(err))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b-c", sanitizeFilename("a b/c"))
}

func TestMetricsSnapshotCountsConflictsAndCache(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.ObserveStoreOperation("save", outcomeConflict, 2*time.Millisecond)
	metrics.ObserveStoreOperation("load", outcomeOK, 2*time.Millisecond)

	snapshot := metrics.Snapshot()
	assert.Equal(t, 0.5, snapshot.CacheHitRatio)
	assert.Equal(t, uint64(2), snapshot.StoreOperations)
	assert.Equal(t, uint64(1), snapshot.RevisionConflicts)

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() {
		nilMetrics.RecordMutation("set_value", outcomeOK)
		nilMetrics.RecordAbsenceCascade(3)
	})
}
