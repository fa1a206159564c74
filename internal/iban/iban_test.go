package iban

import (
	"strings"
	"testing"
)

func TestRequiresIBAN(t *testing.T) {
	tests := []struct {
		country string
		want    bool
	}{
		{"Germany", true},
		{"GERMANY", true},
		{"germany", true},
		{"DE", true},
		{"DEU", true},
		{"United Kingdom", true},
		{"Saudi Arabia", true},
		{"Timor-Leste", true},
		{"United States", false},
		{"China", false},
		{"Hong Kong", false},
		{"", false},
		{"Atlantis", false},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			if got := RequiresIBAN(tt.country); got != tt.want {
				t.Errorf("RequiresIBAN(%q) = %v, want %v", tt.country, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DE89 3704 0044 0532 0130 00", "DE89370400440532013000"},
		{" gb82 west 1234 5698 7654 32 ", "GB82WEST12345698765432"},
		{"NL91ABNA0417164300", "NL91ABNA0417164300"},
	}

	for _, tt := range tests {
		if got := Clean(tt.input); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateValidIBANs(t *testing.T) {
	// Published example IBANs from several registries.
	valid := []string{
		"DE89370400440532013000",
		"GB82WEST12345698765432",
		"FR1420041010050500013M02606",
		"NL91ABNA0417164300",
		"ES9121000418450200051332",
		"CH9300762011623852957",
		"AE070331234567890123456",
		"DE89 3704 0044 0532 0130 00",
	}

	for _, code := range valid {
		ok, verdict := Validate(code)
		if !ok {
			t.Errorf("Validate(%q) rejected a valid IBAN: %s", code, verdict)
		}
		if verdict != "IBAN is valid" {
			t.Errorf("Validate(%q) verdict = %q, want %q", code, verdict, "IBAN is valid")
		}
	}
}

func TestValidateInvalidIBANs(t *testing.T) {
	tests := []struct {
		name    string
		iban    string
		verdict string
	}{
		{"empty", "", "IBAN is empty"},
		{"no country code", "123456789012345678", "IBAN format is invalid (must start with country code)"},
		{"too short for shape", "DE1", "IBAN format is invalid (must start with country code)"},
		{"unknown country", "XX89370400440532013000", "Unknown country code: XX"},
		{"wrong length", "DE8937040044053201300", "IBAN length incorrect. Expected 22 characters, got 21"},
		{"flipped digit", "DE89370400440532013001", "IBAN checksum is invalid"},
		{"transposed chars", "DE89370400440532031000", "IBAN checksum is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, verdict := Validate(tt.iban)
			if ok {
				t.Fatalf("Validate(%q) accepted an invalid IBAN", tt.iban)
			}
			if verdict != tt.verdict {
				t.Errorf("Validate(%q) verdict = %q, want %q", tt.iban, verdict, tt.verdict)
			}
		})
	}
}

func TestValidateVerdictNamesFirstFailure(t *testing.T) {
	// A value that is both the wrong length and checksum-broken must be
	// reported for its length first.
	ok, verdict := Validate("DE00")
	if ok {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(verdict, "length incorrect") {
		t.Errorf("expected length verdict, got %q", verdict)
	}
}

func TestMod97(t *testing.T) {
	// The rearranged form of a valid IBAN always reduces to 1.
	if got := mod97("370400440532013000DE89"); got != 1 {
		t.Errorf("mod97 of valid rearranged IBAN = %d, want 1", got)
	}
	if got := mod97("370400440532013001DE89"); got == 1 {
		t.Error("mod97 of corrupted IBAN unexpectedly reduced to 1")
	}
}
