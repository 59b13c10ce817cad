// Package api exposes the audit system over HTTP. All payloads are
// JSON; errors come back as {"error": "..."} with the matching status.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tdewaele/bilaudit/internal/audit"
	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/store"
)

type Handler struct {
	Store    store.Store
	Launcher *audit.Launcher
}

func (h *Handler) GetDashboardMetrics(c *gin.Context) {
	metrics, err := h.Store.DashboardMetrics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) GetFacts(c *gin.Context) {
	facts, err := h.Store.Facts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, facts)
}

func (h *Handler) SearchFacts(c *gin.Context) {
	facts, err := h.Store.SearchFacts(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, facts)
}

func (h *Handler) GetFact(c *gin.Context) {
	fact, err := h.Store.Fact(c.Param("id"))
	if err != nil {
		h.storeError(c, err, "fact not found")
		return
	}
	c.JSON(http.StatusOK, fact)
}

type factInput struct {
	Key          string `json:"key" binding:"required"`
	Lang         string `json:"lang" binding:"required,oneof=fr nl"`
	Value        string `json:"value" binding:"required"`
	SourceRef    string `json:"sourceRef" binding:"required"`
	LastVerified string `json:"lastVerified" binding:"required"`
	LinkedFactID string `json:"linkedFactId"`
	Topic        string `json:"topic"`
}

func (in factInput) toFact(id string) model.Fact {
	return model.Fact{
		ID:           id,
		Key:          in.Key,
		Lang:         model.Language(in.Lang),
		Value:        in.Value,
		SourceRef:    in.SourceRef,
		LastVerified: in.LastVerified,
		LinkedFactID: in.LinkedFactID,
		Topic:        in.Topic,
	}
}

func (h *Handler) CreateFact(c *gin.Context) {
	var input factInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fact, err := h.Store.CreateFact(input.toFact(""))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, fact)
}

func (h *Handler) UpdateFact(c *gin.Context) {
	var input factInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fact, err := h.Store.UpdateFact(input.toFact(c.Param("id")))
	if err != nil {
		h.storeError(c, err, "fact not found")
		return
	}
	c.JSON(http.StatusOK, fact)
}

func (h *Handler) DeleteFact(c *gin.Context) {
	if err := h.Store.DeleteFact(c.Param("id")); err != nil {
		h.storeError(c, err, "fact not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetQuestionSets(c *gin.Context) {
	sets, err := h.Store.QuestionSets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (h *Handler) GetQuestionSet(c *gin.Context) {
	set, err := h.Store.QuestionSet(c.Param("id"))
	if err != nil {
		h.storeError(c, err, "question set not found")
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) GetQuestions(c *gin.Context) {
	if setID := c.Query("setId"); setID != "" {
		questions, err := h.Store.QuestionsBySet(setID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, questions)
		return
	}
	questions, err := h.Store.Questions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *Handler) GetQuestion(c *gin.Context) {
	question, err := h.Store.Question(c.Param("id"))
	if err != nil {
		h.storeError(c, err, "question not found")
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) GetAuditRuns(c *gin.Context) {
	runs, err := h.Store.AuditRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) GetAuditRun(c *gin.Context) {
	run, err := h.Store.AuditRun(c.Param("id"))
	if err != nil {
		h.storeError(c, err, "audit run not found")
		return
	}
	c.JSON(http.StatusOK, run)
}

type auditRunInput struct {
	QuestionSetID string `json:"questionSetId" binding:"required"`
	Provider      string `json:"provider" binding:"omitempty,oneof=mock-baseline mock-after openai"`
	BaselineRunID string `json:"baselineRunId"`
}

// CreateAuditRun creates a pending run and hands it to the background
// launcher. The response carries the pending run; clients poll its
// status until it reaches completed or failed.
func (h *Handler) CreateAuditRun(c *gin.Context) {
	var input auditRunInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.Store.QuestionSet(input.QuestionSetID); err != nil {
		h.storeError(c, err, "question set not found")
		return
	}

	providerID := model.ProviderID(input.Provider)
	if providerID == "" {
		providerID = model.ProviderMockBaseline
	}

	run, err := h.Store.CreateAuditRun(model.AuditRun{
		QuestionSetID: input.QuestionSetID,
		Provider:      providerID,
		BaselineRunID: input.BaselineRunID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Launcher.Launch(run.ID)
	c.JSON(http.StatusCreated, run)
}

func (h *Handler) GetRunFindings(c *gin.Context) {
	findings, err := h.Store.FindingsByRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) GetRunAnswers(c *gin.Context) {
	answers, err := h.Store.AnswersByRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (h *Handler) GetFindings(c *gin.Context) {
	findings, err := h.Store.Findings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) GetComparison(c *gin.Context) {
	comparison, err := h.Store.Comparison(c.Param("baselineId"), c.Param("currentId"))
	if err != nil {
		h.storeError(c, err, "could not generate comparison")
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (h *Handler) storeError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
