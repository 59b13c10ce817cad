package extract

import "testing"

func TestExtractor_Extract_AllKinds(t *testing.T) {
	ex := NewExtractor(nil)

	text := "Appelez le +32 2 123 45 67 ou visitez https://rendezvous.demoville.be/fr " +
		"(ouvert 08:30 - 16:30). Renouvellement: 30 jours avant expiration, cout 25,00 EUR. " +
		"Adresse: Grand-Place 1, 1000 Bruxelles."

	v := ex.Extract(text)

	// Phone is whitespace-stripped
	if v.Phone != "+3221234567" {
		t.Errorf("Expected phone +3221234567, got %q", v.Phone)
	}
	if v.URL != "https://rendezvous.demoville.be/fr" {
		t.Errorf("Expected appointment URL, got %q", v.URL)
	}
	if v.TimeRange != "08:30 - 16:30" {
		t.Errorf("Expected time range verbatim, got %q", v.TimeRange)
	}
	if v.DayCount != "30" {
		t.Errorf("Expected day count 30, got %q", v.DayCount)
	}
	if v.Amount != "25,00" {
		t.Errorf("Expected amount 25,00, got %q", v.Amount)
	}
	if v.PostalCode != "1000" {
		t.Errorf("Expected postal code 1000, got %q", v.PostalCode)
	}
}

func TestExtractor_Extract_DutchUnits(t *testing.T) {
	ex := NewExtractor(nil)

	v := ex.Extract("U moet 30 dagen voor de vervaldatum vernieuwen, open van 08:30 tot 16:30.")
	if v.DayCount != "30" {
		t.Errorf("Expected day count 30 for 'dagen', got %q", v.DayCount)
	}
	if v.TimeRange != "08:30 tot 16:30" {
		t.Errorf("Expected Dutch time range, got %q", v.TimeRange)
	}
}

func TestExtractor_Extract_AbsentValues(t *testing.T) {
	ex := NewExtractor(nil)

	v := ex.Extract("Geen specifieke informatie beschikbaar.")
	if v.Phone != "" || v.URL != "" || v.TimeRange != "" || v.DayCount != "" || v.Amount != "" || v.PostalCode != "" {
		t.Errorf("Expected all values empty, got %+v", v)
	}
}

func TestExtractor_Extract_FirstMatchWins(t *testing.T) {
	ex := NewExtractor(nil)

	v := ex.Extract("Soit 30 jours, soit 60 jours selon le cas.")
	if v.DayCount != "30" {
		t.Errorf("Expected first day count 30, got %q", v.DayCount)
	}
}

func TestNewExtractor_BadPatternFallsBack(t *testing.T) {
	ex := NewExtractor(map[string]string{
		"days": `(\d+ [unclosed`,
	})

	v := ex.Extract("30 jours avant expiration")
	if v.DayCount != "30" {
		t.Errorf("Expected fallback pattern to extract 30, got %q", v.DayCount)
	}
}

func TestNewExtractor_CustomPattern(t *testing.T) {
	ex := NewExtractor(map[string]string{
		"amount": `(\d+) euros`,
	})

	v := ex.Extract("cela coute 25 euros")
	if v.Amount != "25" {
		t.Errorf("Expected custom pattern to extract 25, got %q", v.Amount)
	}
}
