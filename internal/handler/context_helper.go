package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// revisionSource reports the revision of the document held in memory.
type revisionSource interface {
	Revision(ctx context.Context) (int64, error)
}

func entryKeyFromPath(c *gin.Context) dto.EntryKey {
	return dto.EntryKey{
		SubjectID: c.Param("id"),
		Date:      c.Param("date"),
		StudentID: c.Param("studentId"),
		RuleID:    c.Param("ruleId"),
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return false
	}
	return true
}

// respond writes data in the envelope along with the current revision.
func respond(c *gin.Context, revisions revisionSource, status int, data interface{}) {
	if revisions != nil {
		if revision, err := revisions.Revision(c.Request.Context()); err == nil {
			middleware.SetRevision(c, revision)
		}
	}
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}

func respondOK(c *gin.Context, revisions revisionSource, data interface{}) {
	respond(c, revisions, http.StatusOK, data)
}
