// Package validator classifies user answers by semantic kind and checks the
// structural soundness of data templates and flow graphs.
package validator

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/ports"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9\s().-]+$`)
	dmyPattern     = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})$`)
	isoPattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dayNamePattern = regexp.MustCompile(`^(\d{1,2})\s+([[:alpha:]]+)\.?,?\s+(\d{4})$`)
	nameDayPattern = regexp.MustCompile(`^([[:alpha:]]+)\.?\s+(\d{1,2}),?\s+(\d{4})$`)
)

const (
	minYear = 1900
	maxYear = 2100
)

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Classify checks text against kind. It is a pure function.
func Classify(kind domain.Kind, text string) ports.Verdict {
	text = strings.TrimSpace(text)
	if text == "" {
		return ports.Verdict{}
	}

	var fields map[string]string
	var ok bool

	switch kind {
	case domain.KindEmail:
		ok = emailPattern.MatchString(text)
	case domain.KindPhone:
		ok = isPhone(text)
	case domain.KindName:
		fields, ok = parseName(text)
	case domain.KindNumber:
		ok = isNumber(text)
	case domain.KindAddress:
		ok = isAddress(text)
	case domain.KindDate:
		fields, ok = parseDate(text)
	case domain.KindDay:
		ok = inRange(text, 1, 31)
	case domain.KindMonth:
		var m int
		m, ok = parseMonth(text)
		if ok {
			fields = map[string]string{"month": strconv.Itoa(m)}
		}
	case domain.KindYear:
		ok = len(text) == 4 && inRange(text, minYear, maxYear)
	default:
		// generic, intent and unknown kinds accept any non-empty answer
		ok = true
	}

	if !ok {
		return ports.Verdict{}
	}
	return ports.Verdict{Matched: true, Value: &domain.Value{Raw: text, Fields: fields}}
}

// Builtin is the default extractor backed by Classify.
type Builtin struct{}

// Extract implements ports.Extractor.
func (Builtin) Extract(_ context.Context, kind domain.Kind, text string) (ports.Verdict, error) {
	return Classify(kind, text), nil
}

func isPhone(text string) bool {
	if !phonePattern.MatchString(text) {
		return false
	}
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 6 && digits <= 15
}

func isNumber(text string) bool {
	clean := strings.ReplaceAll(text, " ", "")
	if !strings.Contains(clean, ".") {
		clean = strings.Replace(clean, ",", ".", 1)
	}
	_, err := strconv.ParseFloat(clean, 64)
	return err == nil
}

func isAddress(text string) bool {
	if len(strings.Fields(text)) < 2 {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func parseName(text string) (map[string]string, bool) {
	words := strings.Fields(text)
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
				return nil, false
			}
		}
	}
	if len(words) < 2 {
		return nil, true
	}
	return map[string]string{
		"first": words[0],
		"last":  strings.Join(words[1:], " "),
	}, true
}

func parseMonth(text string) (int, bool) {
	if m, err := strconv.Atoi(text); err == nil {
		return m, m >= 1 && m <= 12
	}
	m, ok := monthNames[strings.ToLower(strings.TrimSuffix(text, "."))]
	return m, ok
}

func parseDate(text string) (map[string]string, bool) {
	var day, month, year int
	var err error

	switch {
	case dmyPattern.MatchString(text):
		p := dmyPattern.FindStringSubmatch(text)
		day, _ = strconv.Atoi(p[1])
		month, _ = strconv.Atoi(p[2])
		year, err = strconv.Atoi(p[3])
	case isoPattern.MatchString(text):
		p := isoPattern.FindStringSubmatch(text)
		year, _ = strconv.Atoi(p[1])
		month, _ = strconv.Atoi(p[2])
		day, err = strconv.Atoi(p[3])
	case dayNamePattern.MatchString(text):
		p := dayNamePattern.FindStringSubmatch(text)
		day, _ = strconv.Atoi(p[1])
		var ok bool
		if month, ok = parseMonth(p[2]); !ok {
			return nil, false
		}
		year, err = strconv.Atoi(p[3])
	case nameDayPattern.MatchString(text):
		p := nameDayPattern.FindStringSubmatch(text)
		var ok bool
		if month, ok = parseMonth(p[1]); !ok {
			return nil, false
		}
		day, _ = strconv.Atoi(p[2])
		year, err = strconv.Atoi(p[3])
	default:
		return nil, false
	}
	if err != nil || !validDate(day, month, year) {
		return nil, false
	}
	return map[string]string{
		"day":   strconv.Itoa(day),
		"month": strconv.Itoa(month),
		"year":  strconv.Itoa(year),
	}, true
}

func validDate(day, month, year int) bool {
	if year < minYear || year > maxYear || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

func inRange(text string, lo, hi int) bool {
	n, err := strconv.Atoi(text)
	return err == nil && n >= lo && n <= hi
}
