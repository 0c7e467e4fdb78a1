package dto

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawInputAcceptsNumbersAndStrings(t *testing.T) {
	cases := map[string]RawInput{
		`{"value": 17.5}`:  "17.5",
		`{"value": "12"}`:  "12",
		`{"value": "abc"}`: "abc",
		`{"value": null}`:  "",
		`{}`:               "",
		`{"value": true}`:  "",
		`{"value": false}`: "",
		`{"value": []}`:    "",
		`{"value": {}}`:    "",
		`{"value": [1]}`:   "",
	}
	for body, want := range cases {
		var req SetValueRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, req.Value, body)
	}
}

func TestRuleTemplateInputValidation(t *testing.T) {
	v := validator.New()

	valid := UpdateSubjectRulesRequest{Rules: []RuleTemplateInput{{Name: "Exam", MaxGrade: 20, Coefficient: 1, Percentage: 60}}}
	assert.NoError(t, v.Struct(valid))

	invalid := []RuleTemplateInput{
		{Name: "", MaxGrade: 20},
		{Name: "Exam", MaxGrade: 0},
		{Name: "Exam", MaxGrade: 20, Coefficient: -1},
		{Name: "Exam", MaxGrade: 20, Percentage: 120},
	}
	for _, rule := range invalid {
		assert.Error(t, v.Struct(UpdateSubjectRulesRequest{Rules: []RuleTemplateInput{rule}}), "%+v", rule)
	}
}

func TestEntryKeyValidatesDate(t *testing.T) {
	v := validator.New()
	assert.NoError(t, v.Struct(EntryKey{SubjectID: "s", Date: "2025-01-10", StudentID: "st", RuleID: "r"}))
	assert.Error(t, v.Struct(EntryKey{SubjectID: "s", Date: "10/01/2025", StudentID: "st", RuleID: "r"}))
}

func TestSetAttendanceRequestStatus(t *testing.T) {
	v := validator.New()
	assert.NoError(t, v.Struct(SetAttendanceRequest{Status: "late"}))
	assert.Error(t, v.Struct(SetAttendanceRequest{Status: "excused"}))
}
