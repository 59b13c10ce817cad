package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/tdewaele/bilaudit/internal/model"
)

// buildMetrics aggregates all findings and runs into the dashboard view.
// runs must already be sorted newest first.
func buildMetrics(findings []model.Finding, runs []model.AuditRun) model.DashboardMetrics {
	byType := make(map[model.FindingType]int, len(model.FindingTypes))
	for _, t := range model.FindingTypes {
		byType[t] = 0
	}
	byLang := map[model.Language]int{model.LangFR: 0, model.LangNL: 0}

	var buckets model.SeverityBuckets
	for _, f := range findings {
		byType[f.Type]++
		byLang[f.Lang]++
		switch {
		case f.Severity >= 8:
			buckets.Critical++
		case f.Severity >= 6:
			buckets.High++
		case f.Severity >= 4:
			buckets.Medium++
		default:
			buckets.Low++
		}
	}

	top := make([]model.Finding, len(findings))
	copy(top, findings)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Severity > top[j].Severity })
	if len(top) > 5 {
		top = top[:5]
	}

	m := model.DashboardMetrics{
		TotalFindings:       len(findings),
		FindingsByType:      byType,
		FindingsBySeverity:  buckets,
		FindingsByLang:      byLang,
		TopSeverityFindings: top,
		TotalAuditRuns:      len(runs),
	}
	if len(runs) > 0 {
		m.LastRunDate = runs[0].CreatedAt.Format(time.RFC3339)
	}
	return m
}

// buildComparison diffs the finding sets of two runs. Findings are matched
// across runs by (questionId, type, lang); that heuristic treats repeated
// findings on the same question as "the same issue".
func buildComparison(baseline, current model.AuditRun, baseFindings, curFindings []model.Finding) model.Comparison {
	counts := func(findings []model.Finding) map[model.FindingType]int {
		out := make(map[model.FindingType]int, len(model.FindingTypes))
		for _, t := range model.FindingTypes {
			out[t] = 0
		}
		for _, f := range findings {
			out[f.Type]++
		}
		return out
	}
	baseCounts := counts(baseFindings)
	curCounts := counts(curFindings)

	key := func(f model.Finding) string {
		return fmt.Sprintf("%s-%s-%s", f.QuestionID, f.Type, f.Lang)
	}
	baseKeys := make(map[string]bool, len(baseFindings))
	for _, f := range baseFindings {
		baseKeys[key(f)] = true
	}
	curKeys := make(map[string]bool, len(curFindings))
	for _, f := range curFindings {
		curKeys[key(f)] = true
	}

	var resolved, fresh []model.Finding
	for _, f := range baseFindings {
		if !curKeys[key(f)] {
			resolved = append(resolved, f)
		}
	}
	for _, f := range curFindings {
		if !baseKeys[key(f)] {
			fresh = append(fresh, f)
		}
	}

	improvements := make([]model.TypeDelta, 0, len(model.FindingTypes))
	for _, t := range model.FindingTypes {
		improvements = append(improvements, model.TypeDelta{Type: t, Change: curCounts[t] - baseCounts[t]})
	}

	return model.Comparison{
		BaselineRunID:    baseline.ID,
		CurrentRunID:     current.ID,
		BaselineDate:     baseline.CreatedAt.Format(time.RFC3339),
		CurrentDate:      current.CreatedAt.Format(time.RFC3339),
		BaselineCounts:   baseCounts,
		CurrentCounts:    curCounts,
		Improvements:     improvements,
		NewFindings:      fresh,
		ResolvedFindings: resolved,
	}
}
