// Package score implements the per-answer audit scorer.
package score

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tdewaele/bilaudit/internal/extract"
	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/rules"
)

var (
	intRe     = regexp.MustCompile(`\d+`)
	timeRe    = regexp.MustCompile(`\d{1,2}:\d{2}`)
	nonWordRe = regexp.MustCompile(`[^\w\s]`)
)

// Scorer checks one answer against the verified facts for its question and
// emits severity-weighted findings. It never fails on malformed input:
// a value that cannot be extracted is "no signal", not an error.
type Scorer struct {
	cfg *rules.Config
	ex  *extract.Extractor
}

// NewScorer creates a scorer bound to a rule configuration
func NewScorer(cfg *rules.Config) *Scorer {
	return &Scorer{
		cfg: cfg,
		ex:  extract.NewExtractor(cfg.Drift.Patterns),
	}
}

// Score runs all checks for one (question, answer) pair. The checks are
// independent; an answer can collect several findings. Facts are filtered
// to those matching the question's expected keys and language.
func (s *Scorer) Score(q model.Question, ans model.Answer, facts []model.Fact, runID string) []model.Finding {
	var findings []model.Finding

	expected := expectedFacts(q, facts)

	// 1. Ungrounded: nothing cited, no marker, no fact text in the answer
	if f, ok := s.checkUngrounded(q, ans, expected, runID); ok {
		findings = append(findings, f)
	}

	// 2. Incorrect: answer contradicts an expected fact value
	for _, fact := range expected {
		if f, ok := s.checkIncorrect(q, ans, fact, runID); ok {
			findings = append(findings, f)
		}
	}

	// 3. Outdated: stale fact plus a divergence signal in the answer
	for _, fact := range expected {
		if f, ok := s.checkOutdated(q, ans, fact, runID); ok {
			findings = append(findings, f)
		}
	}

	return findings
}

func expectedFacts(q model.Question, facts []model.Fact) []model.Fact {
	keys := make(map[string]bool, len(q.ExpectedFactKeys))
	for _, k := range q.ExpectedFactKeys {
		keys[k] = true
	}
	var out []model.Fact
	for _, f := range facts {
		if keys[f.Key] && f.Lang == q.Lang {
			out = append(out, f)
		}
	}
	return out
}

func (s *Scorer) checkUngrounded(q model.Question, ans model.Answer, expected []model.Fact, runID string) (model.Finding, bool) {
	if len(ans.Citations) > 0 {
		return model.Finding{}, false
	}

	for _, marker := range s.cfg.Ungrounded.CitationMarkers {
		if strings.Contains(ans.AnswerText, marker) {
			return model.Finding{}, false
		}
	}

	answerLower := strings.ToLower(ans.AnswerText)
	for _, fact := range expected {
		prefix := strings.ToLower(fact.Value)
		if len(prefix) > 20 {
			prefix = prefix[:20]
		}
		if prefix != "" && strings.Contains(answerLower, prefix) {
			return model.Finding{}, false
		}
	}

	snippet := ans.AnswerText
	if len(snippet) > 100 {
		snippet = snippet[:100]
	}

	return model.Finding{
		AuditRunID: runID,
		QuestionID: q.ID,
		Lang:       q.Lang,
		Type:       model.FindingUngrounded,
		Severity:   s.cfg.ScoreSeverity(6, q.RiskTag),
		Evidence: map[string]any{
			"topic":         q.Topic,
			"reason":        "No citations provided and answer does not match verified facts",
			"answerSnippet": snippet,
		},
		SuggestedFix: "Add proper citations to sources or update answer to match verified facts",
	}, true
}

func (s *Scorer) checkIncorrect(q model.Question, ans model.Answer, fact model.Fact, runID string) (model.Finding, bool) {
	actual, mismatch := s.detectIncorrectValue(fact, ans.AnswerText)
	if !mismatch {
		return model.Finding{}, false
	}

	return model.Finding{
		AuditRunID: runID,
		QuestionID: q.ID,
		Lang:       q.Lang,
		Type:       model.FindingIncorrect,
		Severity:   s.cfg.ScoreSeverity(8, q.RiskTag),
		Evidence: map[string]any{
			"topic":         q.Topic,
			"expectedValue": fact.Value,
			"actualValue":   actual,
			"factKey":       fact.Key,
		},
		SuggestedFix: fmt.Sprintf("Update the answer to use the correct value: %s", fact.Value),
	}, true
}

// detectIncorrectValue applies a type-specific comparison selected by
// substrings of the fact key. This mirrors how facts are named in the
// knowledge base (id_card_deadline, city_hall_hours, appointment_url, ...).
func (s *Scorer) detectIncorrectValue(fact model.Fact, answerText string) (string, bool) {
	key := strings.ToLower(fact.Key)
	answerLower := strings.ToLower(answerText)
	factLower := strings.ToLower(fact.Value)

	switch {
	case containsAny(key, "deadline", "days", "fee", "eur"):
		factNums := intRe.FindAllString(factLower, -1)
		if len(factNums) == 0 {
			return "", false
		}
		for _, n := range intRe.FindAllString(answerLower, -1) {
			if n != factNums[0] {
				return fmt.Sprintf("%s (expected: %s)", n, factNums[0]), true
			}
		}

	case containsAny(key, "hours", "opening"):
		factTimes := timeRe.FindAllString(factLower, -1)
		answerTimes := timeRe.FindAllString(answerLower, -1)
		if len(factTimes) == 0 || len(answerTimes) == 0 {
			return "", false
		}
		for _, t := range answerTimes {
			if !containsString(factTimes, t) {
				return strings.Join(answerTimes, "-"), true
			}
		}

	case containsAny(key, "url", "link"):
		answerURL := s.ex.Extract(answerText).URL
		factURL := s.ex.Extract(fact.Value).URL
		if answerURL == "" || factURL == "" {
			return "", false
		}
		if !strings.Contains(answerURL, factURL) && !strings.Contains(factURL, answerURL) {
			return fmt.Sprintf("%s (expected: %s)", answerURL, factURL), true
		}
	}

	return "", false
}

func (s *Scorer) checkOutdated(q model.Question, ans model.Answer, fact model.Fact, runID string) (model.Finding, bool) {
	verified, ok := parseDate(fact.LastVerified)
	if !ok {
		return model.Finding{}, false
	}

	days := int(time.Since(verified).Hours() / 24)
	if days <= s.cfg.Outdated.StaleAfterDays {
		return model.Finding{}, false
	}

	if strings.Contains(Normalize(ans.AnswerText), Normalize(fact.Value)) {
		return model.Finding{}, false
	}

	if !mightBeOutdated(fact, ans.AnswerText) {
		return model.Finding{}, false
	}

	return model.Finding{
		AuditRunID: runID,
		QuestionID: q.ID,
		Lang:       q.Lang,
		Type:       model.FindingOutdated,
		Severity:   s.cfg.ScoreSeverity(5, q.RiskTag),
		Evidence: map[string]any{
			"topic":                 q.Topic,
			"lastVerified":          fact.LastVerified,
			"daysSinceVerification": days,
			"expectedValue":         fact.Value,
		},
		SuggestedFix: fmt.Sprintf("Verify and update the fact: %s. Last verified: %s", fact.Key, fact.LastVerified),
	}, true
}

// mightBeOutdated fires only when the answer shows a value of the fact's
// kind that diverges from the fact. Currently limited to opening hours:
// the first HH:MM in the answer differing from the fact's.
func mightBeOutdated(fact model.Fact, answerText string) bool {
	if !containsAny(strings.ToLower(fact.Key), "hours", "opening") {
		return false
	}
	factTime := timeRe.FindString(fact.Value)
	answerTime := timeRe.FindString(answerText)
	if factTime == "" || answerTime == "" {
		return false
	}
	return factTime != answerTime
}

// Normalize prepares text for comparison: lowercase, strip everything that
// is not a word character or whitespace, trim.
func Normalize(value string) string {
	return strings.TrimSpace(nonWordRe.ReplaceAllString(strings.ToLower(value), ""))
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
