package parser

import (
	"testing"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

func TestNormalizeDateRoundTrip(t *testing.T) {
	got, err := NormalizeDate("05/03/2024")
	if err != nil {
		t.Fatalf("NormalizeDate: %v", err)
	}
	if got != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %s", got)
	}
	if back := FormatDate(got); back != "05/03/2024" {
		t.Fatalf("round trip broke: %s", back)
	}
}

func TestNormalizeDateRejectsOtherShapes(t *testing.T) {
	for _, in := range []string{"2024-03-05", "5/3/2024", "05/03/24", "amanhã", ""} {
		if _, err := NormalizeDate(in); err == nil {
			t.Fatalf("expected rejection for %q", in)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"8":     "08:00",
		"08":    "08:00",
		"8h30":  "08:30",
		"8H30":  "08:30",
		"08:30": "08:30",
		"23:59": "23:59",
	}
	for in, want := range cases {
		got, err := NormalizeTime(in)
		if err != nil {
			t.Fatalf("NormalizeTime(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeTime(%q) = %s, want %s", in, got, want)
		}
	}

	for _, in := range []string{"25", "12:75", "cedo", ""} {
		if _, err := NormalizeTime(in); err == nil {
			t.Fatalf("expected rejection for %q", in)
		}
	}
}

func TestParseOdometerBrazilianFormat(t *testing.T) {
	got, err := ParseOdometer("45.230,5")
	if err != nil {
		t.Fatalf("ParseOdometer: %v", err)
	}
	if got != 45230.5 {
		t.Fatalf("expected 45230.5, got %v", got)
	}

	got, err = ParseOdometer("1200")
	if err != nil {
		t.Fatalf("ParseOdometer: %v", err)
	}
	if got != 1200.0 {
		t.Fatalf("expected 1200.0, got %v", got)
	}
}

func TestParseOdometerStripsNoise(t *testing.T) {
	got, err := ParseOdometer("km 12.345")
	if err != nil {
		t.Fatalf("ParseOdometer: %v", err)
	}
	if got != 12345 {
		t.Fatalf("expected 12345, got %v", got)
	}

	if _, err := ParseOdometer("não sei"); err == nil {
		t.Fatal("expected rejection for value with no digits")
	}
}

func TestFormatOdometerIdempotent(t *testing.T) {
	km, err := ParseOdometer("1200")
	if err != nil {
		t.Fatalf("ParseOdometer: %v", err)
	}
	if s := FormatOdometer(km); s != "1200" {
		t.Fatalf("expected 1200, got %s", s)
	}

	km, _ = ParseOdometer("45.230,5")
	if s := FormatOdometer(km); s != "45230.5" {
		t.Fatalf("expected 45230.5, got %s", s)
	}
}

func TestMapTanque(t *testing.T) {
	if got := MapTanque("CHEIO", false); got != models.TanqueCheio {
		t.Fatalf("CHEIO: got %s", got)
	}
	if got := MapTanque("1/2", false); got != models.TanqueMeio {
		t.Fatalf("1/2: got %s", got)
	}
	if got := MapTanque("3/4", false); got != models.TanqueMeio {
		t.Fatalf("3/4: got %s", got)
	}
	// The explicit refill flag wins over the reported fraction.
	if got := MapTanque("CHEIO", true); got != models.TanqueAbastecer {
		t.Fatalf("refill flag: got %s", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("AQUISIÇÃO"); got != "Aquisição" {
		t.Fatalf("got %s", got)
	}
	if got := TitleCase("recursos humanos"); got != "Recursos Humanos" {
		t.Fatalf("got %s", got)
	}
}
