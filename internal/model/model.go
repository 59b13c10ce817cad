package model

import "time"

// Language identifies which of the two supported languages an entity is in
type Language string

const (
	LangFR Language = "fr"
	LangNL Language = "nl"
)

// RiskTag categorizes the real-world consequence of answering a question wrong
type RiskTag string

const (
	RiskDeadline    RiskTag = "deadline"    // Missing a legal deadline
	RiskEligibility RiskTag = "eligibility" // Wrongly granted/denied eligibility
	RiskLocation    RiskTag = "location"    // Sending someone to the wrong place
	RiskContact     RiskTag = "contact"     // Wrong phone/URL/email
	RiskDocs        RiskTag = "docs"        // Wrong required documents
	RiskFees        RiskTag = "fees"        // Wrong amounts
	RiskHours       RiskTag = "hours"       // Wrong opening hours
	RiskGeneral     RiskTag = "general"     // Everything else
)

// RiskTags lists every known tag, in severity order
var RiskTags = []RiskTag{
	RiskDeadline, RiskEligibility, RiskLocation, RiskContact,
	RiskDocs, RiskFees, RiskHours, RiskGeneral,
}

// FindingType classifies a detected quality issue
type FindingType string

const (
	FindingIncorrect  FindingType = "incorrect"  // Answer contradicts a verified fact
	FindingOutdated   FindingType = "outdated"   // Answer may rely on stale information
	FindingUngrounded FindingType = "ungrounded" // Answer cites nothing and matches no fact
	FindingDrift      FindingType = "drift"      // FR and NL answers diverge
)

// FindingTypes lists every finding type
var FindingTypes = []FindingType{
	FindingIncorrect, FindingOutdated, FindingUngrounded, FindingDrift,
}

// AuditStatus is the audit run state machine. Transitions move strictly
// forward: pending -> running -> completed, or running -> failed (terminal).
type AuditStatus string

const (
	StatusPending   AuditStatus = "pending"
	StatusRunning   AuditStatus = "running"
	StatusCompleted AuditStatus = "completed"
	StatusFailed    AuditStatus = "failed"
)

// ProviderID selects which answer provider an audit run uses
type ProviderID string

const (
	ProviderMockBaseline ProviderID = "mock-baseline"
	ProviderMockAfter    ProviderID = "mock-after"
	ProviderOpenAI       ProviderID = "openai"
)

// Fact is a verified ground-truth value from the knowledge base.
// At most one fact per (key, lang) pair is treated as canonical; lookups
// take the first match and callers must not rely on anything beyond that.
type Fact struct {
	ID           string   `json:"id"`
	Key          string   `json:"key"`  // Semantic identifier shared across languages
	Lang         Language `json:"lang"`
	Value        string   `json:"value"`
	SourceRef    string   `json:"sourceRef"`
	LastVerified string   `json:"lastVerified"` // Date, YYYY-MM-DD
	LinkedFactID string   `json:"linkedFactId,omitempty"` // Cross-language pairing, mutual
	Topic        string   `json:"topic,omitempty"`
}

// QuestionSet groups the questions evaluated together in one audit run
type QuestionSet struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Languages []Language `json:"languages"`
	Topics    []string   `json:"topics"`
	Version   string     `json:"version"`
}

// Question is one prompt posed to the answer provider. Immutable once created.
type Question struct {
	ID               string   `json:"id"`
	QuestionSetID    string   `json:"questionSetId"`
	Lang             Language `json:"lang"`
	Topic            string   `json:"topic"`
	RiskTag          RiskTag  `json:"riskTag"`
	Text             string   `json:"text"`
	ExpectedFactKeys []string `json:"expectedFactKeys"` // Only the first is used for drift pairing
}

// Answer is a provider's response to one question within one audit run.
// Created once per (run, question); never mutated.
type Answer struct {
	ID         string   `json:"id"`
	AuditRunID string   `json:"auditRunId"`
	QuestionID string   `json:"questionId"`
	Lang       Language `json:"lang"`
	AnswerText string   `json:"answerText"`
	Citations  []string `json:"citations"`
}

// Finding is a scored quality issue. Append-only within a run.
type Finding struct {
	ID           string         `json:"id"`
	AuditRunID   string         `json:"auditRunId"`
	QuestionID   string         `json:"questionId"`
	Lang         Language       `json:"lang"`
	Type         FindingType    `json:"type"`
	Severity     int            `json:"severity"` // 0-10 inclusive, rounded
	Evidence     map[string]any `json:"evidenceJson"`
	SuggestedFix string         `json:"suggestedFix,omitempty"`
}

// AuditRun is one audit execution over a question set
type AuditRun struct {
	ID            string      `json:"id"`
	QuestionSetID string      `json:"questionSetId"`
	CreatedAt     time.Time   `json:"createdAt"`
	Provider      ProviderID  `json:"provider"`
	Status        AuditStatus `json:"status"`
	BaselineRunID string      `json:"baselineRunId,omitempty"` // Optional run to compare against
}
