// Package rules holds the audit rule configuration: risk weight tables,
// staleness threshold, citation markers and the extraction patterns used
// by the drift comparison. Loaded once at startup and read-only afterwards.
package rules

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tdewaele/bilaudit/internal/model"
)

// Outdated configures the staleness check
type Outdated struct {
	StaleAfterDays int `yaml:"stale_after_days"`
}

// Ungrounded configures the grounding check
type Ungrounded struct {
	RequireCitationMarker bool     `yaml:"require_citation_marker"`
	CitationMarkers       []string `yaml:"citation_markers"`
}

// Drift configures the cross-language comparison
type Drift struct {
	CompareFields []string          `yaml:"compare_fields"` // Fields eligible for drift findings
	Patterns      map[string]string `yaml:"patterns"`       // Extraction regexes, keyed by value kind
}

// Config is the full rule set.
//
// RiskWeights (1-5 scale, divided by 5) and DriftWeights (0.8-1.5
// multipliers) are two deliberately distinct tables: the per-answer scorer
// and the drift detector weight risk differently, and merging them would
// silently change every emitted severity.
type Config struct {
	Version      int                       `yaml:"version"`
	RiskWeights  map[model.RiskTag]float64 `yaml:"risk_weights"`
	DriftWeights map[model.RiskTag]float64 `yaml:"drift_weights"`
	Outdated     Outdated                  `yaml:"outdated"`
	Ungrounded   Ungrounded                `yaml:"ungrounded"`
	Drift        Drift                     `yaml:"drift"`
}

// Default returns the built-in rule set, used whenever no rules file is
// available. Values match data/scoring_rules.yaml.
func Default() *Config {
	return &Config{
		Version: 1,
		RiskWeights: map[model.RiskTag]float64{
			model.RiskDeadline:    5,
			model.RiskEligibility: 5,
			model.RiskLocation:    4,
			model.RiskContact:     4,
			model.RiskDocs:        4,
			model.RiskFees:        3,
			model.RiskHours:       3,
			model.RiskGeneral:     1,
		},
		DriftWeights: map[model.RiskTag]float64{
			model.RiskDeadline:    1.5,
			model.RiskEligibility: 1.4,
			model.RiskFees:        1.3,
			model.RiskContact:     1.2,
			model.RiskDocs:        1.2,
			model.RiskLocation:    1.1,
			model.RiskHours:       1.0,
			model.RiskGeneral:     0.8,
		},
		Outdated: Outdated{StaleAfterDays: 180},
		Ungrounded: Ungrounded{
			RequireCitationMarker: true,
			CitationMarkers:       []string{"[SRC:", "Source:", "Sources:"},
		},
		Drift: Drift{
			CompareFields: []string{"phone", "url", "hours", "deadline_days", "amount", "address"},
			Patterns: map[string]string{
				"phone":  `\+?\d[\d\s().-]{6,}\d`,
				"url":    `https?://[^\s\])]+`,
				"hours":  `(?i)\d{1,2}:\d{2}\s*(?:-|a|tot)\s*\d{1,2}:\d{2}`,
				"days":   `(?i)(\d+)\s*(?:jours|jour|dagen|dag|days|day)\b`,
				"amount": `(?i)(\d+[.,]?\d*)\s*EUR`,
				"postal": `\b(\d{4})\b`,
			},
		},
	}
}

// Load reads a rule set from a YAML file. A missing or unreadable file is
// not an error: the built-in defaults are returned with a warning, so the
// engine can always start.
func Load(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("rules file not found, using built-in defaults", "path", path)
		return Default()
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("rules file unreadable, using built-in defaults", "path", path, "error", err)
		return Default()
	}

	if err := cfg.validate(); err != nil {
		slog.Warn("rules file invalid, using built-in defaults", "path", path, "error", err)
		return Default()
	}

	return cfg
}

func (c *Config) validate() error {
	for _, tag := range model.RiskTags {
		if w, ok := c.RiskWeights[tag]; !ok || w <= 0 {
			return fmt.Errorf("risk_weights missing or non-positive for %q", tag)
		}
		if w, ok := c.DriftWeights[tag]; !ok || w <= 0 {
			return fmt.Errorf("drift_weights missing or non-positive for %q", tag)
		}
	}
	if c.Outdated.StaleAfterDays <= 0 {
		return fmt.Errorf("outdated.stale_after_days must be positive")
	}
	return nil
}

// RiskWeight returns the scorer weight for a tag, falling back to the
// general weight for tags outside the table.
func (c *Config) RiskWeight(tag model.RiskTag) float64 {
	if w, ok := c.RiskWeights[tag]; ok {
		return w
	}
	return c.RiskWeights[model.RiskGeneral]
}

// DriftWeight returns the drift multiplier for a tag, falling back to the
// general multiplier for tags outside the table.
func (c *Config) DriftWeight(tag model.RiskTag) float64 {
	if w, ok := c.DriftWeights[tag]; ok {
		return w
	}
	return c.DriftWeights[model.RiskGeneral]
}

// ScoreSeverity computes a scorer finding severity:
// min(10, round(base * weight / 5)), always an integer in [0, 10].
func (c *Config) ScoreSeverity(base int, tag model.RiskTag) int {
	return clampSeverity(math.Round(float64(base) * c.RiskWeight(tag) / 5))
}

// DriftSeverity computes a drift finding severity:
// min(10, round(7 * multiplier)), always an integer in [0, 10].
func (c *Config) DriftSeverity(tag model.RiskTag) int {
	return clampSeverity(math.Round(7 * c.DriftWeight(tag)))
}

func clampSeverity(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return int(v)
}
