package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	unitPattern    = regexp.MustCompile(`(?i)(шт|штук|pcs|pc|компл\.?|уп\.?|пар[аы]?)`)
	withUnit       = regexp.MustCompile(`(?i)(?:^|[^0-9.,])(\d{1,3}(?:[\s.,]\d{3})+|\d+(?:[.,]\d+)?)\s*(шт|штук|pcs|pc|компл\.?|уп\.?|пар[аы]?)(?:[^\p{L}]|$)`)
	dottedThousand = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	commaThousand  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

type ParsedQty struct {
	Qty    float64
	Found  bool
	Unit   *string
	QtyRaw *string
}

// ParseQty reads a quantity written with an explicit count unit ("2 шт").
// Bare numbers are prices or model numbers, so they yield quantity 1.
func ParseQty(input string) ParsedQty {
	line := strings.ReplaceAll(input, " ", " ")

	wm := withUnit.FindAllStringSubmatch(line, -1)
	if len(wm) == 0 {
		return ParsedQty{Qty: 1}
	}

	last := wm[len(wm)-1]
	qtyRaw := strings.TrimSpace(last[1] + " " + last[2])
	parsed, ok := ParseNumber(last[1])
	if !ok || parsed <= 0 {
		return ParsedQty{Qty: 1}
	}

	out := ParsedQty{Qty: parsed, Found: true, QtyRaw: StringPtr(qtyRaw)}
	if um := unitPattern.FindStringSubmatch(last[2]); len(um) > 1 {
		out.Unit = StringPtr(normalizeUnit(um[1]))
	}
	return out
}

// ParseNumber accepts "1 000", "1.000", "1,000", "1,5" and "1.5".
func ParseNumber(token string) (float64, bool) {
	norm := normalizeNumericToken(strings.TrimSpace(token))
	if norm == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "шт", "штук", "pcs", "pc":
		return "шт"
	case "уп", "уп.":
		return "уп"
	case "компл", "компл.":
		return "компл"
	case "пар", "пара", "пары":
		return "пар"
	default:
		return u
	}
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	compact = strings.ReplaceAll(compact, " ", "")
	if dottedThousand.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if commaThousand.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

func StringPtr(v string) *string { return &v }
