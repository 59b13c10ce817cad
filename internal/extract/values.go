// Package extract pulls typed values out of free-text answers.
package extract

import (
	"regexp"
	"strings"
)

// Values holds the best-effort extraction from one piece of text.
// An empty string means the value was absent.
type Values struct {
	Phone      string // Whitespace-stripped phone number
	URL        string
	TimeRange  string // e.g. "08:30-16:30", verbatim match
	DayCount   string // Integer before a day-unit word
	Amount     string // Decimal before EUR
	PostalCode string // 4-digit code
}

// Extractor matches typed values against free text. Each extractor is
// independent; the first match wins when a value occurs more than once.
// Extraction is a pure function of the input text.
type Extractor struct {
	phone  *regexp.Regexp
	url    *regexp.Regexp
	hours  *regexp.Regexp
	days   *regexp.Regexp
	amount *regexp.Regexp
	postal *regexp.Regexp
}

// Default patterns, used when a configured pattern is missing or does not
// compile. These match data/scoring_rules.yaml.
var defaultPatterns = map[string]string{
	"phone":  `\+?\d[\d\s().-]{6,}\d`,
	"url":    `https?://[^\s\])]+`,
	"hours":  `(?i)\d{1,2}:\d{2}\s*(?:-|a|tot)\s*\d{1,2}:\d{2}`,
	"days":   `(?i)(\d+)\s*(?:jours|jour|dagen|dag|days|day)\b`,
	"amount": `(?i)(\d+[.,]?\d*)\s*EUR`,
	"postal": `\b(\d{4})\b`,
}

// NewExtractor compiles an extractor from configured patterns. Patterns
// that are absent or fail to compile fall back to the built-in defaults.
func NewExtractor(patterns map[string]string) *Extractor {
	return &Extractor{
		phone:  compile(patterns, "phone"),
		url:    compile(patterns, "url"),
		hours:  compile(patterns, "hours"),
		days:   compile(patterns, "days"),
		amount: compile(patterns, "amount"),
		postal: compile(patterns, "postal"),
	}
}

func compile(patterns map[string]string, kind string) *regexp.Regexp {
	if p, ok := patterns[kind]; ok {
		if re, err := regexp.Compile(p); err == nil {
			return re
		}
	}
	return regexp.MustCompile(defaultPatterns[kind])
}

// Extract runs every extractor over the text
func (e *Extractor) Extract(text string) Values {
	return Values{
		Phone:      stripSpace(e.phone.FindString(text)),
		URL:        e.url.FindString(text),
		TimeRange:  e.hours.FindString(text),
		DayCount:   firstGroup(e.days, text),
		Amount:     firstGroup(e.amount, text),
		PostalCode: firstGroup(e.postal, text),
	}
}

// firstGroup returns capture group 1 of the first match, or ""
func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
