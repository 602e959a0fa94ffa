package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

var (
	dateRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	timeRe = regexp.MustCompile(`^(?i)(\d{1,2})(?:[h:](\d{2}))?$`)
)

// NormalizeDate converts a DD/MM/YYYY date to YYYY-MM-DD. Any other shape
// is an error; dates are never guessed.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !dateRe.MatchString(value) {
		return "", fmt.Errorf("data inválida: %s (use DD/MM/AAAA)", value)
	}
	t, err := time.Parse("02/01/2006", value)
	if err != nil {
		return "", fmt.Errorf("data inválida: %s", value)
	}
	return t.Format("2006-01-02"), nil
}

// FormatDate is the display inverse of NormalizeDate.
func FormatDate(value string) string {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}

// NormalizeTime accepts "8", "8h30", "08:30" and the like and returns a
// zero-padded HH:MM. A missing minute defaults to 00.
func NormalizeTime(value string) (string, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", fmt.Errorf("horário inválido: %s (use HH:MM)", value)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("horário inválido: %s", value)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseOdometer reads a Brazilian-formatted odometer value ("45.230,5"),
// where "." separates thousands and "," is the decimal mark. Stray
// non-numeric characters ("km 1200") are stripped first.
func ParseOdometer(value string) (float64, error) {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	clean := strings.ReplaceAll(b.String(), ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" || clean == "." {
		return 0, fmt.Errorf("quilometragem inválida: %s", value)
	}
	km, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("quilometragem inválida: %s", value)
	}
	return km, nil
}

// FormatOdometer renders an odometer value without trailing zeros so that
// parse/format round-trips are stable ("1200" -> 1200.0 -> "1200").
func FormatOdometer(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

// MapTanque maps the reported tank fraction onto the stored vocabulary.
// An explicit "needs refill" flag wins over whatever fraction was typed.
func MapTanque(fraction string, necessarioAbastecer bool) models.TanqueStatus {
	if necessarioAbastecer {
		return models.TanqueAbastecer
	}
	switch strings.ToUpper(strings.TrimSpace(fraction)) {
	case "1/2", "3/4":
		return models.TanqueMeio
	default:
		// CHEIO, an empty field and anything ambiguous fall back to full.
		return models.TanqueCheio
	}
}

// TitleCase normalizes free text like department names for display
// ("AQUISIÇÃO" -> "Aquisição").
func TitleCase(value string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(value)))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// deaccent folds the accented characters that show up in message keys and
// status values so matching can be accent-insensitive.
func deaccent(s string) string {
	replacer := strings.NewReplacer(
		"Á", "A", "À", "A", "Â", "A", "Ã", "A",
		"É", "E", "Ê", "E",
		"Í", "I",
		"Ó", "O", "Ô", "O", "Õ", "O",
		"Ú", "U", "Ü", "U",
		"Ç", "C",
	)
	return replacer.Replace(s)
}
