package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/gradebook"
	"github.com/noah-isme/gradebook-api/internal/models"
)

// ScoreService computes final scores, backed by the score cache when enabled.
type ScoreService struct {
	state  *StateService
	cache  *CacheService
	logger *zap.Logger
}

// NewScoreService constructs ScoreService.
func NewScoreService(state *StateService, cache *CacheService, logger *zap.Logger) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{state: state, cache: cache, logger: logger}
}

// StudentScore returns the final score of a student. The boolean reports a
// cache hit. Lookup and fill run under the state lock with the revision in the
// key, so a fill can never answer for a newer document.
func (s *ScoreService) StudentScore(ctx context.Context, subjectID, studentID string) (*dto.StudentScoreResponse, bool, error) {
	var resp *dto.StudentScoreResponse
	var hit bool
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		if _, err := findEnrolledStudent(doc, subject, studentID); err != nil {
			return err
		}
		key := studentScoreKey(subjectID, doc.Revision, studentID)
		var cached dto.StudentScoreResponse
		if hit, _ = s.cache.Get(ctx, key, &cached); hit {
			resp = &cached
			return nil
		}
		score := gradebook.FinalScore(doc.GradeEntries, studentID, subjectID)
		resp = &dto.StudentScoreResponse{FinalScore: score, Display: score.Display()}
		_ = s.cache.Set(ctx, key, resp, 0)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return resp, hit, nil
}

// ClassScores returns the score sheet of a subject: final score, absences and
// last note per student.
func (s *ScoreService) ClassScores(ctx context.Context, subjectID string) (*dto.ClassScoresResponse, bool, error) {
	var resp *dto.ClassScoresResponse
	var hit bool
	err := s.state.Read(ctx, func(doc *models.Document) error {
		subject, err := findSubject(doc, subjectID)
		if err != nil {
			return err
		}
		key := classScoresKey(subjectID, doc.Revision)
		var cached dto.ClassScoresResponse
		if hit, _ = s.cache.Get(ctx, key, &cached); hit {
			resp = &cached
			return nil
		}
		resp = &dto.ClassScoresResponse{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Rows:        gradebook.ClassScores(doc.GradeEntries, doc.AttendanceRecords, subject.ID, doc.StudentsOfClass(subject.ClassID)),
		}
		_ = s.cache.Set(ctx, key, resp, 0)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return resp, hit, nil
}
