package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/gradebook"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// AttendanceService records attendance and applies the absence cascade.
type AttendanceService struct {
	state     *StateService
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(state *StateService, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{state: state, validator: validate, metrics: metrics, logger: logger}
}

// Toggle advances the status of a student along present, absent, late.
func (s *AttendanceService) Toggle(ctx context.Context, subjectID, date, studentID string) (*dto.AttendanceChangeResponse, error) {
	return s.write(ctx, "toggle_attendance", subjectID, date, studentID, func(doc *models.Document, subject models.Subject) gradebook.AttendanceChange {
		return gradebook.ToggleAttendance(doc.AttendanceRecords, doc.GradeEntries, subject, studentID, date, s.state.Stamper())
	})
}

// Set stores an explicit status.
func (s *AttendanceService) Set(ctx context.Context, subjectID, date, studentID string, req dto.SetAttendanceRequest) (*dto.AttendanceChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status := models.AttendanceStatus(req.Status)
	return s.write(ctx, "set_attendance", subjectID, date, studentID, func(doc *models.Document, subject models.Subject) gradebook.AttendanceChange {
		return gradebook.SetAttendance(doc.AttendanceRecords, doc.GradeEntries, subject, studentID, date, status, s.state.Stamper())
	})
}

// ListDay returns the attendance of a subject day.
func (s *AttendanceService) ListDay(ctx context.Context, subjectID, date string) (*dto.DayAttendanceResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	var resp *dto.DayAttendanceResponse
	err := s.state.Read(ctx, func(doc *models.Document) error {
		if _, err := findSubject(doc, subjectID); err != nil {
			return err
		}
		records := gradebook.AttendanceForDay(doc.AttendanceRecords, subjectID, date)
		if records == nil {
			records = []models.AttendanceRecord{}
		}
		resp = &dto.DayAttendanceResponse{SubjectID: subjectID, Date: date, Records: records}
		return nil
	})
	return resp, err
}

// Summary counts a student's statuses for a subject.
func (s *AttendanceService) Summary(ctx context.Context, subjectID, studentID string) (*models.AttendanceSummary, error) {
	var summary models.AttendanceSummary
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		if _, err := findEnrolledStudent(doc, subject, studentID); err != nil {
			return err
		}
		summary = gradebook.AttendanceSummary(doc.AttendanceRecords, studentID, subjectID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *AttendanceService) write(ctx context.Context, command, subjectID, date, studentID string, apply func(doc *models.Document, subject models.Subject) gradebook.AttendanceChange) (*dto.AttendanceChangeResponse, error) {
	if err := validateDay(s.validator, date); err != nil {
		return nil, err
	}
	var change gradebook.AttendanceChange
	err := s.state.Mutate(ctx, command, subjectID, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		if _, err := findEnrolledStudent(doc, subject, studentID); err != nil {
			return err
		}
		change = apply(doc, subject)
		doc.AttendanceRecords = change.Records
		doc.GradeEntries = change.Entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	if change.Zeroed > 0 {
		s.metrics.RecordAbsenceCascade(change.Zeroed)
		s.logger.Info("absence zeroed grade entries",
			zap.String("subject_id", subjectID),
			zap.String("student_id", studentID),
			zap.String("date", date),
			zap.Int("zeroed", change.Zeroed))
	}
	return &dto.AttendanceChangeResponse{
		Record:        change.Record,
		Previous:      change.Previous,
		ZeroedEntries: change.Zeroed,
	}, nil
}
