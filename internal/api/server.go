package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every route mounted under /api
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		api.GET("/dashboard/metrics", h.GetDashboardMetrics)

		api.GET("/facts", h.GetFacts)
		api.GET("/facts/search", h.SearchFacts)
		api.GET("/facts/:id", h.GetFact)
		api.POST("/facts", h.CreateFact)
		api.PUT("/facts/:id", h.UpdateFact)
		api.DELETE("/facts/:id", h.DeleteFact)

		api.GET("/question-sets", h.GetQuestionSets)
		api.GET("/question-sets/:id", h.GetQuestionSet)
		api.GET("/questions", h.GetQuestions)
		api.GET("/questions/:id", h.GetQuestion)

		api.GET("/audit-runs", h.GetAuditRuns)
		api.GET("/audit-runs/:id", h.GetAuditRun)
		api.POST("/audit-runs", h.CreateAuditRun)
		api.GET("/audit-runs/:id/findings", h.GetRunFindings)
		api.GET("/audit-runs/:id/answers", h.GetRunAnswers)

		api.GET("/findings", h.GetFindings)
		api.GET("/comparison/:baselineId/:currentId", h.GetComparison)
	}

	return r
}
