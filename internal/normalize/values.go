package normalize

import (
	"strings"

	"github.com/araddon/dateparse"
)

const isoDate = "2006-01-02"

// Quantity keeps only digits and decimal points, in order.
// "100 EA" -> "100", "12,5 kg" -> "125". The result may be empty.
func Quantity(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DeliveryDate renders a parseable date as YYYY-MM-DD in the zone it was
// written in. Unparseable input comes back unchanged.
func DeliveryDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return s
	}
	return t.Format(isoDate)
}
