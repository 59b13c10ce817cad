package model

// SeverityBuckets groups finding counts by severity band
type SeverityBuckets struct {
	Critical int `json:"critical"` // severity >= 8
	High     int `json:"high"`     // severity >= 6
	Medium   int `json:"medium"`   // severity >= 4
	Low      int `json:"low"`
}

// DashboardMetrics is the aggregate view served to the dashboard
type DashboardMetrics struct {
	TotalFindings       int                  `json:"totalFindings"`
	FindingsByType      map[FindingType]int  `json:"findingsByType"`
	FindingsBySeverity  SeverityBuckets      `json:"findingsBySeverity"`
	FindingsByLang      map[Language]int     `json:"findingsByLang"`
	TopSeverityFindings []Finding            `json:"topSeverityFindings"`
	LastRunDate         string               `json:"lastRunDate,omitempty"`
	TotalAuditRuns      int                  `json:"totalAuditRuns"`
}

// TypeDelta records how the count of one finding type moved between runs
type TypeDelta struct {
	Type   FindingType `json:"type"`
	Change int         `json:"change"` // current - baseline; negative is an improvement
}

// Comparison is computed on demand from two completed runs' finding sets.
// It is derived data, never persisted. Findings are matched across runs by
// (questionId, type).
type Comparison struct {
	BaselineRunID    string              `json:"baselineRunId"`
	CurrentRunID     string              `json:"currentRunId"`
	BaselineDate     string              `json:"baselineDate"`
	CurrentDate      string              `json:"currentDate"`
	BaselineCounts   map[FindingType]int `json:"baselineCounts"`
	CurrentCounts    map[FindingType]int `json:"currentCounts"`
	Improvements     []TypeDelta         `json:"improvements"`
	NewFindings      []Finding           `json:"newFindings"`
	ResolvedFindings []Finding           `json:"resolvedFindings"`
}
