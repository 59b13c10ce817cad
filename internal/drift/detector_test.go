package drift

import (
	"testing"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/rules"
)

func questionPair(factKey, topic string, tag model.RiskTag) []model.Question {
	return []model.Question{
		{
			ID:               "q-" + factKey + "-fr",
			Lang:             model.LangFR,
			Topic:            topic,
			RiskTag:          tag,
			ExpectedFactKeys: []string{factKey},
		},
		{
			ID:               "q-" + factKey + "-nl",
			Lang:             model.LangNL,
			Topic:            topic,
			RiskTag:          tag,
			ExpectedFactKeys: []string{factKey},
		},
	}
}

func answerPair(questions []model.Question, frText, nlText string) []model.Answer {
	return []model.Answer{
		{ID: "a-fr", QuestionID: questions[0].ID, Lang: model.LangFR, AnswerText: frText},
		{ID: "a-nl", QuestionID: questions[1].ID, Lang: model.LangNL, AnswerText: nlText},
	}
}

func TestDetector_Detect_DivergingURLs(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("online_appointment_url", "contact", model.RiskContact)
	answers := answerPair(questions,
		"Prenez rendez-vous sur https://rendezvous.demoville.be/fr",
		"Maak een afspraak via https://afspraken.demoville.be/nl",
	)

	findings := d.Detect("run-1", answers, questions)

	if len(findings) != 1 {
		t.Fatalf("Expected 1 drift finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != model.FindingDrift {
		t.Errorf("Expected drift type, got %s", f.Type)
	}
	// Finding is attached to the FR question of the pair
	if f.QuestionID != questions[0].ID || f.Lang != model.LangFR {
		t.Errorf("Expected finding on FR question, got question=%s lang=%s", f.QuestionID, f.Lang)
	}
	if f.Severity != 8 { // 7 * contact multiplier 1.2
		t.Errorf("Expected severity 8, got %d", f.Severity)
	}
	if f.Evidence["field"] != "url" {
		t.Errorf("Expected url field, got %v", f.Evidence["field"])
	}
}

func TestDetector_Detect_LanguageSuffixIsNotDrift(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("online_appointment_url", "contact", model.RiskContact)
	answers := answerPair(questions,
		"Prenez rendez-vous sur https://rendezvous.demoville.be/fr",
		"Maak een afspraak via https://rendezvous.demoville.be/nl",
	)

	if findings := d.Detect("run-1", answers, questions); len(findings) != 0 {
		t.Errorf("Same base URL with /fr vs /nl suffix must not drift, got %+v", findings)
	}
}

func TestDetector_Detect_DivergingHours(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("city_hall_hours", "hours", model.RiskHours)
	answers := answerPair(questions,
		"Ouvert de 09:00 a 17:00.",
		"Open van 08:30 tot 16:30.",
	)

	findings := d.Detect("run-1", answers, questions)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 drift finding, got %d", len(findings))
	}
	if findings[0].Severity != 7 { // 7 * hours multiplier 1.0
		t.Errorf("Expected severity 7, got %d", findings[0].Severity)
	}
	if findings[0].Evidence["frValue"] != "09:00a17:00" {
		t.Errorf("Expected whitespace-stripped FR time range, got %v", findings[0].Evidence["frValue"])
	}
}

func TestDetector_Detect_DivergingDeadline(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("id_card_deadline", "deadline", model.RiskDeadline)
	answers := answerPair(questions,
		"Renouvelez 60 jours avant expiration.",
		"Vernieuw 30 dagen voor de vervaldatum.",
	)

	findings := d.Detect("run-1", answers, questions)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 drift finding, got %d", len(findings))
	}
	if findings[0].Severity != 10 { // 7 * 1.5 = 10.5, clamped to 10
		t.Errorf("Expected severity 10, got %d", findings[0].Severity)
	}
	if findings[0].Evidence["field"] != "deadline_days" {
		t.Errorf("Expected deadline_days field, got %v", findings[0].Evidence["field"])
	}
}

func TestDetector_Detect_DivergingFees(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("id_card_fee", "fees", model.RiskFees)
	answers := answerPair(questions,
		"Cela coute 25,00 EUR.",
		"Dat kost 30,00 EUR.",
	)

	findings := d.Detect("run-1", answers, questions)
	if len(findings) != 1 {
		t.Fatalf("Expected 1 drift finding, got %d", len(findings))
	}
	if findings[0].Severity != 9 { // 7 * fees multiplier 1.3
		t.Errorf("Expected severity 9, got %d", findings[0].Severity)
	}
}

func TestDetector_Detect_MissingPairSkipped(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("city_hall_hours", "hours", model.RiskHours)
	answers := []model.Answer{
		{ID: "a-fr", QuestionID: questions[0].ID, Lang: model.LangFR, AnswerText: "Ouvert de 09:00 a 17:00."},
	}

	if findings := d.Detect("run-1", answers, questions); len(findings) != 0 {
		t.Errorf("A group without both languages must not drift, got %+v", findings)
	}
}

func TestDetector_Detect_DuplicateLanguageSkipped(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("city_hall_hours", "hours", model.RiskHours)
	answers := append(answerPair(questions,
		"Ouvert de 09:00 a 17:00.",
		"Open van 08:30 tot 16:30.",
	), model.Answer{ID: "a-fr-2", QuestionID: questions[0].ID, Lang: model.LangFR, AnswerText: "Ouvert 10:00 a 18:00."})

	if findings := d.Detect("run-1", answers, questions); len(findings) != 0 {
		t.Errorf("A group with two FR answers is ambiguous and must be skipped, got %+v", findings)
	}
}

func TestDetector_Detect_OrderIndependent(t *testing.T) {
	d := NewDetector(rules.Default())
	questions := questionPair("online_appointment_url", "contact", model.RiskContact)
	answers := answerPair(questions,
		"https://rendezvous.demoville.be/fr",
		"https://afspraken.demoville.be/nl",
	)
	reversed := []model.Answer{answers[1], answers[0]}

	a := d.Detect("run-1", answers, questions)
	b := d.Detect("run-1", reversed, questions)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("Expected 1 finding for both orders, got %d and %d", len(a), len(b))
	}
	if a[0].QuestionID != b[0].QuestionID || a[0].Severity != b[0].Severity {
		t.Errorf("Findings differ by input order: %+v vs %+v", a[0], b[0])
	}
}

func TestDetector_Detect_DisabledFieldNeverDrifts(t *testing.T) {
	cfg := rules.Default()
	cfg.Drift.CompareFields = []string{"phone"} // hours disabled
	d := NewDetector(cfg)

	questions := questionPair("city_hall_hours", "hours", model.RiskHours)
	answers := answerPair(questions,
		"Ouvert de 09:00 a 17:00.",
		"Open van 08:30 tot 16:30.",
	)

	if findings := d.Detect("run-1", answers, questions); len(findings) != 0 {
		t.Errorf("Field outside compare_fields must not drift, got %+v", findings)
	}
}
