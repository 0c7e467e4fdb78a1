package handler

import "github.com/gin-gonic/gin"

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Rules      *RuleHandler
	Entries    *GradeEntryHandler
	Attendance *AttendanceHandler
	Scores     *ScoreHandler
	Metrics    *MetricsHandler
}

// Register mounts the gradebook routes on router under prefix.
func Register(router gin.IRouter, prefix string, h Handlers) {
	api := router.Group(prefix)

	subjects := api.Group("/subjects/:id")
	subjects.GET("/rules", h.Rules.ListTemplates)
	subjects.PUT("/rules", h.Rules.UpdateTemplates)
	subjects.GET("/scores", h.Scores.ClassScores)
	subjects.GET("/scores/export", h.Scores.Export)
	subjects.GET("/students/:studentId/score", h.Scores.StudentScore)
	subjects.GET("/attendance/summary/:studentId", h.Attendance.Summary)

	days := subjects.Group("/days/:date")
	days.GET("/rules", h.Rules.ResolveDay)
	days.PUT("/rules", h.Rules.ApplyDayRules)
	days.DELETE("/rules/:ruleId", h.Rules.RemoveRule)
	days.POST("/rules/:ruleId/unify", h.Rules.UnifyRule)
	days.GET("/consistency", h.Rules.Consistency)

	days.GET("/entries", h.Entries.ListDay)
	entry := days.Group("/entries/:studentId/:ruleId")
	entry.PUT("/value", h.Entries.SetValue)
	entry.PUT("/note", h.Entries.SetNote)
	entry.PUT("/ignored", h.Entries.SetIgnored)
	entry.PUT("/override", h.Entries.SetOverride)

	days.GET("/attendance", h.Attendance.ListDay)
	days.PUT("/attendance/:studentId", h.Attendance.Set)
	days.POST("/attendance/:studentId/toggle", h.Attendance.Toggle)

	if h.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Snapshot)
	}
}
