package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const dayLayoutTag = "required,datetime=2006-01-02"

func validateDay(v *validator.Validate, date string) error {
	if err := v.Var(date, dayLayoutTag); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be formatted as YYYY-MM-DD")
	}
	return nil
}

func findSubject(doc *models.Document, subjectID string) (models.Subject, error) {
	subject, ok := doc.FindSubject(subjectID)
	if !ok {
		return models.Subject{}, appErrors.Clone(appErrors.ErrSubjectNotFound, fmt.Sprintf("subject %s not found", subjectID))
	}
	return subject, nil
}

// findEnrolledStudent returns a student of the subject's class.
func findEnrolledStudent(doc *models.Document, subject models.Subject, studentID string) (models.Student, error) {
	student, ok := doc.FindStudent(studentID)
	if !ok || student.ClassID != subject.ClassID {
		return models.Student{}, appErrors.Clone(appErrors.ErrStudentNotFound, fmt.Sprintf("student %s is not enrolled in subject %s", studentID, subject.ID))
	}
	return student, nil
}

func ruleNotFound(ruleID, date string) error {
	return appErrors.Clone(appErrors.ErrRuleNotFound, fmt.Sprintf("rule %s is not effective on %s", ruleID, date))
}
