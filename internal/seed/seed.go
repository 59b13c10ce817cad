// Package seed installs the Demoville demo dataset: the bilingual fact
// base and the question set the audits run against. File-based seeds in
// the data directory win over the built-in dataset when present.
package seed

import (
	"fmt"
	"log/slog"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/store"
)

// IfEmpty seeds the store unless it already holds facts or question
// sets. Safe to call on every startup.
func IfEmpty(st store.Store, dataDir string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	facts, err := st.Facts()
	if err != nil {
		return fmt.Errorf("check existing facts: %w", err)
	}
	sets, err := st.QuestionSets()
	if err != nil {
		return fmt.Errorf("check existing question sets: %w", err)
	}
	if len(facts) > 0 || len(sets) > 0 {
		log.Debug("store already seeded", "facts", len(facts), "questionSets", len(sets))
		return nil
	}

	seedFacts := defaultFacts()
	if fromFile, ok := LoadFacts(dataDir, log); ok {
		seedFacts = fromFile
	}

	// Facts arrive as FR/NL pairs; adjacent entries get linked mutually.
	created := make([]model.Fact, 0, len(seedFacts))
	for _, f := range seedFacts {
		cf, err := st.CreateFact(f)
		if err != nil {
			return fmt.Errorf("seed fact %s/%s: %w", f.Key, f.Lang, err)
		}
		created = append(created, cf)
	}
	for i := 0; i+1 < len(created); i += 2 {
		fr, nl := created[i], created[i+1]
		fr.LinkedFactID = nl.ID
		nl.LinkedFactID = fr.ID
		if _, err := st.UpdateFact(fr); err != nil {
			return fmt.Errorf("link fact %s: %w", fr.ID, err)
		}
		if _, err := st.UpdateFact(nl); err != nil {
			return fmt.Errorf("link fact %s: %w", nl.ID, err)
		}
	}

	set, questions := defaultQuestionSet()
	if fs, fq, ok := LoadQuestionSet(dataDir, log); ok {
		set, questions = fs, fq
	}

	createdSet, err := st.CreateQuestionSet(set)
	if err != nil {
		return fmt.Errorf("seed question set: %w", err)
	}
	for _, q := range questions {
		q.QuestionSetID = createdSet.ID
		if _, err := st.CreateQuestion(q); err != nil {
			return fmt.Errorf("seed question %q: %w", q.Text, err)
		}
	}

	log.Info("seeded store",
		"facts", len(created),
		"questionSet", createdSet.Title,
		"questions", len(questions))
	return nil
}

func defaultFacts() []model.Fact {
	return []model.Fact{
		{Key: "city_hall_phone", Lang: model.LangFR, Value: "+32 2 123 45 67",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "contact"},
		{Key: "city_hall_phone", Lang: model.LangNL, Value: "+32 2 123 45 67",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "contact"},
		{Key: "city_hall_address", Lang: model.LangFR, Value: "Grand-Place 1, 1000 Bruxelles",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "location"},
		{Key: "city_hall_address", Lang: model.LangNL, Value: "Grote Markt 1, 1000 Brussel",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "location"},
		{Key: "city_hall_hours", Lang: model.LangFR, Value: "Lundi-Vendredi: 08:30-16:30",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "hours"},
		{Key: "city_hall_hours", Lang: model.LangNL, Value: "Maandag-Vrijdag: 08:30-16:30",
			SourceRef: "/data/sources/city_hall.md", LastVerified: "2025-01-15", Topic: "hours"},
		{Key: "id_card_deadline", Lang: model.LangFR, Value: "30 jours avant expiration",
			SourceRef: "/data/sources/id_card.md", LastVerified: "2025-01-10", Topic: "deadline"},
		{Key: "id_card_deadline", Lang: model.LangNL, Value: "30 dagen voor vervaldatum",
			SourceRef: "/data/sources/id_card.md", LastVerified: "2025-01-10", Topic: "deadline"},
		{Key: "id_card_fee", Lang: model.LangFR, Value: "25,00 EUR",
			SourceRef: "/data/sources/id_card.md", LastVerified: "2025-01-10", Topic: "fees"},
		{Key: "id_card_fee", Lang: model.LangNL, Value: "25,00 EUR",
			SourceRef: "/data/sources/id_card.md", LastVerified: "2025-01-10", Topic: "fees"},
		{Key: "passport_docs", Lang: model.LangFR, Value: "Photo d'identite, ancienne carte d'identite, justificatif de domicile",
			SourceRef: "/data/sources/passport.md", LastVerified: "2025-01-08", Topic: "docs"},
		{Key: "passport_docs", Lang: model.LangNL, Value: "Pasfoto, oude identiteitskaart, bewijs van woonplaats",
			SourceRef: "/data/sources/passport.md", LastVerified: "2025-01-08", Topic: "docs"},
		{Key: "online_appointment_url", Lang: model.LangFR, Value: "https://rendezvous.demoville.be/fr",
			SourceRef: "/data/sources/appointments.md", LastVerified: "2025-01-12", Topic: "contact"},
		{Key: "online_appointment_url", Lang: model.LangNL, Value: "https://afspraken.demoville.be/nl",
			SourceRef: "/data/sources/appointments.md", LastVerified: "2025-01-12", Topic: "contact"},
	}
}

func defaultQuestionSet() (model.QuestionSet, []model.Question) {
	set := model.QuestionSet{
		Title:     "Demoville Civic Services v2",
		Languages: []model.Language{model.LangFR, model.LangNL},
		Topics:    []string{"contact", "hours", "deadline", "fees", "docs", "location"},
		Version:   "2.0",
	}
	questions := []model.Question{
		{Lang: model.LangFR, Topic: "contact", RiskTag: model.RiskContact,
			Text:             "Quel est le numero de telephone de la mairie de Demoville?",
			ExpectedFactKeys: []string{"city_hall_phone"}},
		{Lang: model.LangNL, Topic: "contact", RiskTag: model.RiskContact,
			Text:             "Wat is het telefoonnummer van het gemeentehuis van Demoville?",
			ExpectedFactKeys: []string{"city_hall_phone"}},
		{Lang: model.LangFR, Topic: "location", RiskTag: model.RiskLocation,
			Text:             "Ou se trouve la mairie de Demoville?",
			ExpectedFactKeys: []string{"city_hall_address"}},
		{Lang: model.LangNL, Topic: "location", RiskTag: model.RiskLocation,
			Text:             "Waar bevindt zich het gemeentehuis van Demoville?",
			ExpectedFactKeys: []string{"city_hall_address"}},
		{Lang: model.LangFR, Topic: "hours", RiskTag: model.RiskHours,
			Text:             "Quels sont les horaires d'ouverture de la mairie?",
			ExpectedFactKeys: []string{"city_hall_hours"}},
		{Lang: model.LangNL, Topic: "hours", RiskTag: model.RiskHours,
			Text:             "Wat zijn de openingsuren van het gemeentehuis?",
			ExpectedFactKeys: []string{"city_hall_hours"}},
		{Lang: model.LangFR, Topic: "deadline", RiskTag: model.RiskDeadline,
			Text:             "Quand dois-je renouveler ma carte d'identite?",
			ExpectedFactKeys: []string{"id_card_deadline"}},
		{Lang: model.LangNL, Topic: "deadline", RiskTag: model.RiskDeadline,
			Text:             "Wanneer moet ik mijn identiteitskaart vernieuwen?",
			ExpectedFactKeys: []string{"id_card_deadline"}},
		{Lang: model.LangFR, Topic: "fees", RiskTag: model.RiskFees,
			Text:             "Combien coute une nouvelle carte d'identite?",
			ExpectedFactKeys: []string{"id_card_fee"}},
		{Lang: model.LangNL, Topic: "fees", RiskTag: model.RiskFees,
			Text:             "Hoeveel kost een nieuwe identiteitskaart?",
			ExpectedFactKeys: []string{"id_card_fee"}},
		{Lang: model.LangFR, Topic: "docs", RiskTag: model.RiskDocs,
			Text:             "Quels documents sont necessaires pour un passeport?",
			ExpectedFactKeys: []string{"passport_docs"}},
		{Lang: model.LangNL, Topic: "docs", RiskTag: model.RiskDocs,
			Text:             "Welke documenten zijn nodig voor een paspoort?",
			ExpectedFactKeys: []string{"passport_docs"}},
		{Lang: model.LangFR, Topic: "contact", RiskTag: model.RiskContact,
			Text:             "Comment prendre rendez-vous en ligne?",
			ExpectedFactKeys: []string{"online_appointment_url"}},
		{Lang: model.LangNL, Topic: "contact", RiskTag: model.RiskContact,
			Text:             "Hoe maak ik een online afspraak?",
			ExpectedFactKeys: []string{"online_appointment_url"}},
	}
	return set, questions
}
