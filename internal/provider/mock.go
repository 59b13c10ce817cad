package provider

import (
	"context"
	"fmt"

	"github.com/tdewaele/bilaudit/internal/model"
)

// mock returns canned answers keyed by the question's first expected fact
// key and language. Unknown questions get a harmless "no information"
// answer with no citations.
type mock struct {
	id      model.ProviderID
	answers map[string]Response
}

func newMock(id model.ProviderID, builtin, override map[string]Response) *mock {
	answers := make(map[string]Response, len(builtin))
	for k, v := range builtin {
		answers[k] = v
	}
	for k, v := range override {
		answers[k] = v
	}
	return &mock{id: id, answers: answers}
}

func (m *mock) Name() string { return string(m.id) }

func (m *mock) GetAnswer(_ context.Context, q model.Question) (Response, error) {
	if len(q.ExpectedFactKeys) > 0 {
		if resp, ok := m.answers[MockAnswerKey(q.ExpectedFactKeys[0], q.Lang)]; ok {
			return resp, nil
		}
	}
	return fallbackAnswer(q), nil
}

func fallbackAnswer(q model.Question) Response {
	if q.Lang == model.LangNL {
		return Response{
			AnswerText: fmt.Sprintf("Ik beschik niet over specifieke informatie om deze vraag over %q te beantwoorden.", q.Topic),
		}
	}
	return Response{
		AnswerText: fmt.Sprintf("Je ne dispose pas d'informations specifiques pour repondre a cette question sur %q.", q.Topic),
	}
}

// baselineAnswers simulate a model with known quality issues: stale hours,
// a wrong deadline, missing citations and diverging appointment URLs.
var baselineAnswers = map[string]Response{
	"city_hall_phone|fr": {
		AnswerText: "Le numero de telephone de la mairie de Demoville est +32 2 123 45 67. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_phone|nl": {
		AnswerText: "Het telefoonnummer van het gemeentehuis van Demoville is +32 2 123 45 67. [Bron: officiele website]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_address|fr": {
		AnswerText: "La mairie se trouve a la Grand-Place 1, 1000 Bruxelles.",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_address|nl": {
		AnswerText: "Het gemeentehuis bevindt zich op Grote Markt 1, 1000 Brussel.",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_hours|fr": {
		// Outdated and ungrounded: old opening hours, nothing cited
		AnswerText: "La mairie est ouverte du lundi au vendredi de 09:00 a 17:00.",
	},
	"city_hall_hours|nl": {
		AnswerText: "Het gemeentehuis is open van maandag tot vrijdag van 08:30 tot 16:30. [Bron: officiele website]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"id_card_deadline|fr": {
		// Incorrect and ungrounded: 60 instead of 30 days
		AnswerText: "Vous devez renouveler votre carte d'identite 60 jours avant son expiration.",
	},
	"id_card_deadline|nl": {
		AnswerText: "U moet uw identiteitskaart 30 dagen voor de vervaldatum vernieuwen. [Bron: ID-kaart info]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"id_card_fee|fr": {
		AnswerText: "Une nouvelle carte d'identite coute 25,00 EUR. [Source: tarifs municipaux]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"id_card_fee|nl": {
		AnswerText: "Een nieuwe identiteitskaart kost 25,00 EUR. [Bron: gemeentelijke tarieven]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"passport_docs|fr": {
		// Ungrounded: plausible but cites nothing
		AnswerText: "Pour un passeport, vous avez besoin d'une photo, de votre ancienne carte et d'un justificatif.",
	},
	"passport_docs|nl": {
		AnswerText: "Voor een paspoort heeft u een pasfoto, oude identiteitskaart en bewijs van woonplaats nodig. [Bron: paspoort info]",
		Citations:  []string{"/data/sources/passport.md"},
	},
	"online_appointment_url|fr": {
		// Drift: FR and NL answers point at different hosts
		AnswerText: "Prenez rendez-vous sur https://rendezvous.demoville.be/fr [Source: site officiel]",
		Citations:  []string{"/data/sources/appointments.md"},
	},
	"online_appointment_url|nl": {
		AnswerText: "Maak een afspraak via https://afspraken.demoville.be/nl [Bron: officiele website]",
		Citations:  []string{"/data/sources/appointments.md"},
	},
}

// afterAnswers simulate the same model after remediation: every answer
// cites its source and matches the verified facts.
var afterAnswers = map[string]Response{
	"city_hall_phone|fr": {
		AnswerText: "Le numero de telephone de la mairie de Demoville est +32 2 123 45 67. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_phone|nl": {
		AnswerText: "Het telefoonnummer van het gemeentehuis van Demoville is +32 2 123 45 67. [Bron: officiele website]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_address|fr": {
		AnswerText: "La mairie se trouve a la Grand-Place 1, 1000 Bruxelles. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_address|nl": {
		AnswerText: "Het gemeentehuis bevindt zich op Grote Markt 1, 1000 Brussel. [Bron: officiele website]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_hours|fr": {
		AnswerText: "La mairie est ouverte du lundi au vendredi de 08:30 a 16:30. [Source: site officiel]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"city_hall_hours|nl": {
		AnswerText: "Het gemeentehuis is open van maandag tot vrijdag van 08:30 tot 16:30. [Bron: officiele website]",
		Citations:  []string{"/data/sources/city_hall.md"},
	},
	"id_card_deadline|fr": {
		AnswerText: "Vous devez renouveler votre carte d'identite 30 jours avant son expiration. [Source: info carte d'identite]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"id_card_deadline|nl": {
		AnswerText: "U moet uw identiteitskaart 30 dagen voor de vervaldatum vernieuwen. [Bron: ID-kaart info]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"id_card_fee|fr": {
		AnswerText: "Une nouvelle carte d'identite coute 25,00 EUR. [Source: tarifs municipaux]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"id_card_fee|nl": {
		AnswerText: "Een nieuwe identiteitskaart kost 25,00 EUR. [Bron: gemeentelijke tarieven]",
		Citations:  []string{"/data/sources/id_card.md"},
	},
	"passport_docs|fr": {
		AnswerText: "Pour un passeport, vous avez besoin d'une photo, de votre ancienne carte et d'un justificatif. [Source: info passeport]",
		Citations:  []string{"/data/sources/passport.md"},
	},
	"passport_docs|nl": {
		AnswerText: "Voor een paspoort heeft u een pasfoto, oude identiteitskaart en bewijs van woonplaats nodig. [Bron: paspoort info]",
		Citations:  []string{"/data/sources/passport.md"},
	},
	"online_appointment_url|fr": {
		AnswerText: "Prenez rendez-vous sur https://rendezvous.demoville.be/fr [Source: site officiel]",
		Citations:  []string{"/data/sources/appointments.md"},
	},
	"online_appointment_url|nl": {
		AnswerText: "Maak een afspraak via https://rendezvous.demoville.be/nl [Bron: officiele website]",
		Citations:  []string{"/data/sources/appointments.md"},
	},
}
