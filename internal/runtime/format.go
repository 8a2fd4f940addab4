package runtime

import (
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/slotflow/pkg/domain"
)

// InputPlaceholder is replaced by the captured value in message templates.
const InputPlaceholder = "{input}"

// FormatValue renders a captured value for humans: composite dates as
// "<day> <month-name> <year>", composite names as "<first> <last>",
// anything else as the raw answer.
func FormatValue(v *domain.Value) string {
	if v == nil {
		return ""
	}
	f := v.Fields
	if day, month, year := f["day"], f["month"], f["year"]; day != "" && month != "" && year != "" {
		if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m).String()
		}
		return day + " " + month + " " + year
	}
	if first, last := f["first"], f["last"]; first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	return v.Raw
}

// Substitute replaces {input} in text with the formatted value. With
// prepend set and no placeholder present, the value is put in front of the
// text followed by a period so it is never silently dropped.
func Substitute(text string, v *domain.Value, prepend bool) string {
	formatted := FormatValue(v)
	if strings.Contains(text, InputPlaceholder) {
		return strings.ReplaceAll(text, InputPlaceholder, formatted)
	}
	if prepend && formatted != "" {
		return formatted + ". " + text
	}
	return text
}
