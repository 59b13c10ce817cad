// Package drift compares paired FR/NL answers from one audit run and
// flags fields where the two languages diverge on what should be
// facts-identical content.
package drift

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tdewaele/bilaudit/internal/extract"
	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/rules"
)

// Language-specific URL path suffixes are not drift: /fr and /nl variants
// of the same base URL are expected.
var langSuffixRe = regexp.MustCompile(`/(fr|nl)/?$`)

// Detector pairs answers by the first expected fact key of their question
// and applies topic-specific field comparisons.
type Detector struct {
	cfg *rules.Config
	ex  *extract.Extractor
}

// NewDetector creates a detector bound to a rule configuration
func NewDetector(cfg *rules.Config) *Detector {
	return &Detector{
		cfg: cfg,
		ex:  extract.NewExtractor(cfg.Drift.Patterns),
	}
}

type pair struct {
	fr, nl   []model.Answer
	frQ, nlQ model.Question
}

type divergence struct {
	field   string
	frValue string
	nlValue string
}

// Detect runs drift detection over the complete answer set of one run.
// Answers whose question has no expected fact key are ignored. Each group
// yields at most one finding: checks run in a fixed order and the first
// divergent field wins. The result does not depend on the input order of
// the answers.
func (d *Detector) Detect(runID string, answers []model.Answer, questions []model.Question) []model.Finding {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	groups := make(map[string]*pair)
	var keys []string // first-seen order, for deterministic output

	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok || len(q.ExpectedFactKeys) == 0 {
			continue
		}
		factKey := q.ExpectedFactKeys[0]
		g, ok := groups[factKey]
		if !ok {
			g = &pair{}
			groups[factKey] = g
			keys = append(keys, factKey)
		}
		switch q.Lang {
		case model.LangFR:
			g.fr = append(g.fr, ans)
			g.frQ = q
		case model.LangNL:
			g.nl = append(g.nl, ans)
			g.nlQ = q
		}
	}

	var findings []model.Finding
	for _, factKey := range keys {
		g := groups[factKey]
		if len(g.fr) != 1 || len(g.nl) != 1 {
			continue
		}

		div, ok := d.compare(g.fr[0].AnswerText, g.nl[0].AnswerText, g.frQ.Topic)
		if !ok {
			continue
		}

		findings = append(findings, model.Finding{
			AuditRunID: runID,
			QuestionID: g.frQ.ID,
			Lang:       g.frQ.Lang,
			Type:       model.FindingDrift,
			Severity:   d.cfg.DriftSeverity(g.frQ.RiskTag),
			Evidence: map[string]any{
				"topic":   g.frQ.Topic,
				"factKey": factKey,
				"frValue": div.frValue,
				"nlValue": div.nlValue,
				"field":   div.field,
			},
			SuggestedFix: fmt.Sprintf("Align FR and NL values for %s: FR=%q vs NL=%q", div.field, div.frValue, div.nlValue),
		})
	}

	return findings
}

// compare extracts comparable values from both answers and applies the
// topic's checks in order. Topics without a defined check never drift.
func (d *Detector) compare(frText, nlText, topic string) (divergence, bool) {
	fr := d.ex.Extract(frText)
	nl := d.ex.Extract(nlText)

	switch topic {
	case "contact":
		if d.fieldComparable("phone") && fr.Phone != "" && nl.Phone != "" && fr.Phone != nl.Phone {
			return divergence{"phone", fr.Phone, nl.Phone}, true
		}
		if d.fieldComparable("url") && fr.URL != "" && nl.URL != "" {
			frBase := langSuffixRe.ReplaceAllString(fr.URL, "")
			nlBase := langSuffixRe.ReplaceAllString(nl.URL, "")
			if frBase != nlBase {
				return divergence{"url", fr.URL, nl.URL}, true
			}
		}

	case "hours":
		frTimes := stripSpace(fr.TimeRange)
		nlTimes := stripSpace(nl.TimeRange)
		if d.fieldComparable("hours") && frTimes != "" && nlTimes != "" && frTimes != nlTimes {
			return divergence{"hours", frTimes, nlTimes}, true
		}

	case "deadline":
		if d.fieldComparable("deadline_days") && fr.DayCount != "" && nl.DayCount != "" && fr.DayCount != nl.DayCount {
			return divergence{"deadline_days", fr.DayCount, nl.DayCount}, true
		}

	case "fees":
		if d.fieldComparable("amount") && fr.Amount != "" && nl.Amount != "" && fr.Amount != nl.Amount {
			return divergence{"amount", fr.Amount, nl.Amount}, true
		}

	case "location":
		if d.fieldComparable("address") && fr.PostalCode != "" && nl.PostalCode != "" && fr.PostalCode != nl.PostalCode {
			return divergence{"address", fr.PostalCode, nl.PostalCode}, true
		}
	}

	return divergence{}, false
}

func (d *Detector) fieldComparable(field string) bool {
	for _, f := range d.cfg.Drift.CompareFields {
		if f == field {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
