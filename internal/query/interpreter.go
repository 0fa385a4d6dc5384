package query

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

const (
	DefaultCountry = "CN"
	DefaultValue   = 10000
)

const number = `(\d{1,3}(?: \d{3})+(?:[.,]\d+)?|\d+(?:[.,]\d+)?)`

// lead keeps a number from starting in the middle of a word or another number.
const lead = `(?:^|[^\p{L}\d.,])`

type valuePattern struct {
	re         *regexp.Regexp
	multiplier int64
	currency   string
}

// valuePatterns are tried in order; the first match wins.
var valuePatterns = []valuePattern{
	{re: regexp.MustCompile(lead + number + `\s*(?:к|тысяч\p{L}*|тыс\.?)(?:[^\p{L}]|$)`), multiplier: 1000, currency: "RUB"},
	{re: regexp.MustCompile(lead + number + `\s*(?:руб\p{L}*|р\.|₽|rub)`), multiplier: 1, currency: "RUB"},
	{re: regexp.MustCompile(lead + number + `\s*(?:\$|долл\p{L}*|usd)`), multiplier: 1, currency: "USD"},
	{re: regexp.MustCompile(`\$\s*` + number), multiplier: 1, currency: "USD"},
	{re: regexp.MustCompile(lead + number + `\s*(?:€|евро|eur)`), multiplier: 1, currency: "EUR"},
	{re: regexp.MustCompile(`€\s*` + number), multiplier: 1, currency: "EUR"},
	{re: regexp.MustCompile(lead + number + `\s*(?:юан\p{L}*|¥|cny|rmb)`), multiplier: 1, currency: "CNY"},
}

var reCountryCode = regexp.MustCompile(`\b([A-Z]{2})\b`)

// Interpreter turns free text into a product descriptor. It is a keyword
// heuristic: one descriptor per text, first match wins.
type Interpreter struct {
	defaultCountry string
	defaultValue   decimal.Decimal
}

func NewInterpreter(defaultCountry string, defaultValue float64) *Interpreter {
	country := strings.ToUpper(strings.TrimSpace(defaultCountry))
	if country == "" {
		country = DefaultCountry
	}
	if defaultValue <= 0 {
		defaultValue = DefaultValue
	}
	return &Interpreter{defaultCountry: country, defaultValue: decimal.NewFromFloat(defaultValue)}
}

// Parse returns false when no product name can be resolved.
func (p *Interpreter) Parse(text string) (internal.ProductDescriptor, bool) {
	normalized := util.NormalizeText(text)
	if normalized == "" {
		return internal.ProductDescriptor{}, false
	}
	tokens := util.Tokenize(normalized, 1)

	prod, ok := resolveProduct(normalized, tokens)
	if !ok {
		return internal.ProductDescriptor{}, false
	}

	d := internal.ProductDescriptor{
		Name:            withGender(prod, normalized),
		Material:        prod.Material,
		Function:        prod.Function,
		ProcessingLevel: prod.ProcessingLevel,
		OriginCountry:   p.country(text, tokens),
		Currency:        "RUB",
	}
	if m := materialFromText(normalized); m != "" {
		d.Material = m
	}

	if value, currency, found := extractValue(normalized); found {
		d.DeclaredValue = value
		d.Currency = currency
	} else if prod.DefaultValue > 0 {
		d.DeclaredValue = decimal.NewFromInt(prod.DefaultValue)
	} else {
		d.DeclaredValue = p.defaultValue
	}
	return d, true
}

func resolveProduct(normalized string, tokens []string) (product, bool) {
	stems := util.StemTokens(tokens)
	for _, candidate := range knownProducts {
		if containsPhrase(stems, util.StemTokens(util.Tokenize(candidate.Name, 1))) {
			return candidate, true
		}
	}
	for _, s := range brandSynonyms {
		if matchAlias(normalized, tokens, stems, s.Alias) {
			return productByName(s.Product)
		}
	}
	for _, g := range keywordGroups {
		if util.ContainsAny(normalized, g.Keywords...) {
			return productByName(g.Product)
		}
	}
	return product{}, false
}

// matchAlias compares single-word aliases per token, so "kia" does not
// match "nokia". Trailing model digits are ignored: "iphone15" is "iphone".
func matchAlias(normalized string, tokens, stems []string, alias string) bool {
	if strings.Contains(alias, " ") {
		return strings.Contains(normalized, alias)
	}
	aliasStem := util.Stem(alias)
	for i, tok := range tokens {
		if tok == alias || strings.TrimRight(tok, "0123456789") == alias || stems[i] == aliasStem {
			return true
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs as a consecutive run in stems.
func containsPhrase(stems, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(stems) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(stems); i++ {
		for j, want := range phrase {
			if stems[i+j] != want {
				continue outer
			}
		}
		return true
	}
	return false
}

func withGender(prod product, normalized string) string {
	if prod.GenderForms[0] == "" {
		return prod.Name
	}
	male := strings.Index(normalized, "мужск")
	female := strings.Index(normalized, "женск")
	switch {
	case male >= 0 && (female < 0 || male < female):
		return prod.GenderForms[0] + " " + prod.Name
	case female >= 0:
		return prod.GenderForms[1] + " " + prod.Name
	}
	return prod.Name
}

func materialFromText(normalized string) string {
	var found []string
	for _, h := range materialHints {
		if util.ContainsAny(normalized, h.Stems...) {
			found = append(found, h.Material)
		}
	}
	return strings.Join(found, ", ")
}

func (p *Interpreter) country(raw string, tokens []string) string {
	for _, tok := range tokens {
		for _, c := range countries {
			for _, e := range c.Exact {
				if tok == e {
					return c.Code
				}
			}
			for _, prefix := range c.Prefixes {
				if strings.HasPrefix(tok, prefix) {
					return c.Code
				}
			}
		}
	}
	for _, m := range reCountryCode.FindAllStringSubmatch(raw, -1) {
		for _, c := range countries {
			if c.Code == m[1] {
				return c.Code
			}
		}
	}
	return p.defaultCountry
}

func extractValue(normalized string) (decimal.Decimal, string, bool) {
	for _, vp := range valuePatterns {
		m := vp.re.FindStringSubmatch(normalized)
		if len(m) < 2 {
			continue
		}
		v, ok := util.ParseNumber(m[1])
		if !ok {
			continue
		}
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(vp.multiplier)), vp.currency, true
	}
	return decimal.Zero, "", false
}
