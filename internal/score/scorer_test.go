package score

import (
	"testing"
	"time"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/rules"
)

func freshDate() string {
	return time.Now().AddDate(0, 0, -10).Format("2006-01-02")
}

func staleDate() string {
	return time.Now().AddDate(-1, 0, 0).Format("2006-01-02")
}

func deadlineQuestion() model.Question {
	return model.Question{
		ID:               "q-deadline-fr",
		Lang:             model.LangFR,
		Topic:            "deadline",
		RiskTag:          model.RiskDeadline,
		Text:             "Quand dois-je renouveler ma carte d'identite?",
		ExpectedFactKeys: []string{"id_card_deadline"},
	}
}

func deadlineFact(lastVerified string) model.Fact {
	return model.Fact{
		ID:           "f-deadline-fr",
		Key:          "id_card_deadline",
		Lang:         model.LangFR,
		Value:        "30 jours avant expiration",
		LastVerified: lastVerified,
	}
}

func hoursFact(lastVerified string) model.Fact {
	return model.Fact{
		ID:           "f-hours-fr",
		Key:          "city_hall_hours",
		Lang:         model.LangFR,
		Value:        "Lundi-Vendredi: 08:30-16:30",
		LastVerified: lastVerified,
	}
}

func findByType(findings []model.Finding, typ model.FindingType) (model.Finding, bool) {
	for _, f := range findings {
		if f.Type == typ {
			return f, true
		}
	}
	return model.Finding{}, false
}

func TestScorer_Score_WrongDeadlineWithoutCitations(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{
		QuestionID: q.ID,
		Lang:       q.Lang,
		AnswerText: "Vous devez renouveler votre carte d'identite 60 jours avant son expiration.",
	}

	findings := s.Score(q, ans, []model.Fact{deadlineFact(freshDate())}, "run-1")

	if len(findings) != 2 {
		t.Fatalf("Expected 2 findings (ungrounded + incorrect), got %d: %+v", len(findings), findings)
	}

	ungrounded, ok := findByType(findings, model.FindingUngrounded)
	if !ok {
		t.Fatal("Expected an ungrounded finding")
	}
	if ungrounded.Severity != 6 { // base 6 * deadline weight 5/5
		t.Errorf("Expected ungrounded severity 6, got %d", ungrounded.Severity)
	}

	incorrect, ok := findByType(findings, model.FindingIncorrect)
	if !ok {
		t.Fatal("Expected an incorrect finding")
	}
	if incorrect.Severity != 8 { // base 8 * deadline weight 5/5
		t.Errorf("Expected incorrect severity 8, got %d", incorrect.Severity)
	}
	if incorrect.Evidence["expectedValue"] != "30 jours avant expiration" {
		t.Errorf("Expected fact value in evidence, got %v", incorrect.Evidence["expectedValue"])
	}
}

func TestScorer_Score_CitationMarkerGroundsAnswer(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{
		AnswerText: "Vous devez renouveler 60 jours avant expiration. [Source: info carte]",
	}

	findings := s.Score(q, ans, []model.Fact{deadlineFact(freshDate())}, "run-1")

	if _, ok := findByType(findings, model.FindingUngrounded); ok {
		t.Error("Answer with citation marker must not be ungrounded")
	}
	if _, ok := findByType(findings, model.FindingIncorrect); !ok {
		t.Error("Wrong deadline should still be incorrect")
	}
}

func TestScorer_Score_CitationListGroundsAnswer(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{
		AnswerText: "Renouvellement sous 60 jours.",
		Citations:  []string{"/data/sources/id_card.md"},
	}

	findings := s.Score(q, ans, []model.Fact{deadlineFact(freshDate())}, "run-1")
	if _, ok := findByType(findings, model.FindingUngrounded); ok {
		t.Error("Answer with structured citations must not be ungrounded")
	}
}

func TestScorer_Score_CorrectAnswerIsClean(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{
		AnswerText: "Vous devez renouveler votre carte 30 jours avant expiration selon le reglement.",
	}

	findings := s.Score(q, ans, []model.Fact{deadlineFact(freshDate())}, "run-1")
	if len(findings) != 0 {
		t.Errorf("Expected no findings for a matching answer, got %+v", findings)
	}
}

func TestScorer_Score_WrongOpeningHours(t *testing.T) {
	s := NewScorer(rules.Default())
	q := model.Question{
		ID:               "q-hours-fr",
		Lang:             model.LangFR,
		Topic:            "hours",
		RiskTag:          model.RiskHours,
		ExpectedFactKeys: []string{"city_hall_hours"},
	}
	ans := model.Answer{
		AnswerText: "La mairie est ouverte de 09:00 a 17:00. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	}

	findings := s.Score(q, ans, []model.Fact{hoursFact(freshDate())}, "run-1")

	incorrect, ok := findByType(findings, model.FindingIncorrect)
	if !ok {
		t.Fatal("Expected an incorrect finding for wrong hours")
	}
	if incorrect.Severity != 5 { // base 8 * hours weight 3/5 = 4.8
		t.Errorf("Expected incorrect severity 5, got %d", incorrect.Severity)
	}
	if incorrect.Evidence["actualValue"] != "09:00-17:00" {
		t.Errorf("Expected actual value 09:00-17:00, got %v", incorrect.Evidence["actualValue"])
	}
}

func TestScorer_Score_StaleHoursFlaggedOutdated(t *testing.T) {
	s := NewScorer(rules.Default())
	q := model.Question{
		ID:               "q-hours-fr",
		Lang:             model.LangFR,
		Topic:            "hours",
		RiskTag:          model.RiskHours,
		ExpectedFactKeys: []string{"city_hall_hours"},
	}
	ans := model.Answer{
		AnswerText: "Ouvert de 09:00 a 17:00. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	}

	findings := s.Score(q, ans, []model.Fact{hoursFact(staleDate())}, "run-1")

	outdated, ok := findByType(findings, model.FindingOutdated)
	if !ok {
		t.Fatal("Expected an outdated finding for stale fact with diverging time")
	}
	if outdated.Severity != 3 { // base 5 * hours weight 3/5
		t.Errorf("Expected outdated severity 3, got %d", outdated.Severity)
	}
	if outdated.Evidence["lastVerified"] != staleDate() {
		t.Errorf("Expected lastVerified in evidence, got %v", outdated.Evidence["lastVerified"])
	}
}

func TestScorer_Score_StaleFactMatchingAnswerNotOutdated(t *testing.T) {
	s := NewScorer(rules.Default())
	q := model.Question{
		ID:               "q-hours-fr",
		Lang:             model.LangFR,
		Topic:            "hours",
		RiskTag:          model.RiskHours,
		ExpectedFactKeys: []string{"city_hall_hours"},
	}
	ans := model.Answer{
		AnswerText: "Horaires: Lundi-Vendredi: 08:30-16:30. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	}

	findings := s.Score(q, ans, []model.Fact{hoursFact(staleDate())}, "run-1")
	if _, ok := findByType(findings, model.FindingOutdated); ok {
		t.Error("Answer matching the fact value must not be outdated, regardless of fact age")
	}
}

func TestScorer_Score_WrongURL(t *testing.T) {
	s := NewScorer(rules.Default())
	q := model.Question{
		ID:               "q-url-fr",
		Lang:             model.LangFR,
		Topic:            "contact",
		RiskTag:          model.RiskContact,
		ExpectedFactKeys: []string{"online_appointment_url"},
	}
	fact := model.Fact{
		Key:          "online_appointment_url",
		Lang:         model.LangFR,
		Value:        "https://rendezvous.demoville.be/fr",
		LastVerified: freshDate(),
	}
	ans := model.Answer{
		AnswerText: "Prenez rendez-vous sur https://afspraken.demoville.be/fr [Source: site]",
		Citations:  []string{"/data/sources/appointments.md"},
	}

	findings := s.Score(q, ans, []model.Fact{fact}, "run-1")
	if _, ok := findByType(findings, model.FindingIncorrect); !ok {
		t.Error("Expected an incorrect finding for a different URL host")
	}
}

func TestScorer_Score_NoFactsNeverErrors(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{AnswerText: "Je ne sais pas."}

	findings := s.Score(q, ans, nil, "run-1")

	// Only the ungrounded check can fire without facts
	if len(findings) != 1 || findings[0].Type != model.FindingUngrounded {
		t.Errorf("Expected exactly one ungrounded finding, got %+v", findings)
	}
}

func TestScorer_Score_SeverityBounds(t *testing.T) {
	s := NewScorer(rules.Default())
	q := deadlineQuestion()
	ans := model.Answer{AnswerText: "60 jours."}

	findings := s.Score(q, ans, []model.Fact{deadlineFact(staleDate())}, "run-1")
	for _, f := range findings {
		if f.Severity < 0 || f.Severity > 10 {
			t.Errorf("Severity %d out of [0, 10] for %s", f.Severity, f.Type)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Grand-Place 1, 1000 Bruxelles!  ")
	want := "grandplace 1 1000 bruxelles"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}
