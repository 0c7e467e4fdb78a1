package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := Wrap(sql.ErrNoRows, ErrSubjectNotFound.Code, ErrSubjectNotFound.Status, "subject missing")

	got := FromError(wrapped)
	assert.Same(t, wrapped, got)
	assert.True(t, errors.Is(got, sql.ErrNoRows))
	assert.Equal(t, "subject missing: sql: no rows in result set", got.Error())
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	clone := Clone(ErrRuleNotFound, "rule quiz is not effective on 2025-01-10")
	assert.True(t, errors.Is(clone, ErrRuleNotFound))
	assert.False(t, errors.Is(clone, ErrSubjectNotFound))
	assert.Equal(t, ErrRuleNotFound.Message, "rule is not effective for this day")
}
