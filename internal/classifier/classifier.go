package classifier

import (
	"fmt"
	"strings"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

const (
	// Confidence is reported for every result, including the fallback.
	Confidence = 0.85

	FallbackCode     = "0000000000"
	FallbackCategory = "unclassified"
	defaultVATRate   = "20%"
)

var baseDocuments = []string{
	"Таможенная декларация",
	"Инвойс (счет-фактура)",
	"Упаковочный лист",
	"Транспортные документы (CMR, коносамент или авианакладная)",
}

const originDocument = "Подтверждение страны происхождения"

// eaeu members do not need an origin confirmation.
var eaeu = map[string]bool{"BY": true, "KZ": true, "AM": true, "KG": true, "RU": true}

// Fields are the lowercased descriptor fields rules match against.
type Fields struct {
	Name     string
	Material string
	Function string
	Origin   string
}

func fieldsOf(d internal.ProductDescriptor) Fields {
	return Fields{
		Name:     util.NormalizeText(d.Name),
		Material: util.NormalizeText(d.Material),
		Function: util.NormalizeText(d.Function),
		Origin:   strings.ToUpper(strings.TrimSpace(d.OriginCountry)),
	}
}

// Resolution is what a matched rule contributes to the result.
type Resolution struct {
	Code        string
	Description string
	DutyRate    string
	VATRate     string
	Documents   []string
}

// Rule is a predicate plus resolver. Rules are tried in order.
type Rule struct {
	Category string
	Match    func(Fields) bool
	Resolve  func(Fields) Resolution
}

type Classifier struct {
	rules []Rule
}

// New returns a classifier over the built-in categories followed by extra.
func New(extra ...Rule) *Classifier {
	rules := builtinRules()
	rules = append(rules, extra...)
	return &Classifier{rules: rules}
}

// Categories lists rule categories in evaluation order.
func (c *Classifier) Categories() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}

// Classify always returns a result; unmatched descriptors get the fallback
// code with NeedsReview set.
func (c *Classifier) Classify(d internal.ProductDescriptor) internal.ClassificationResult {
	f := fieldsOf(d)
	for _, r := range c.rules {
		if !r.Match(f) {
			continue
		}
		res := r.Resolve(f)
		if res.Code == "" {
			continue
		}
		return c.result(d, f, r.Category, res, false)
	}
	return c.result(d, f, FallbackCategory, Resolution{
		Code:        FallbackCode,
		Description: "Требуется ручная классификация экспертом",
		DutyRate:    "0%",
		VATRate:     defaultVATRate,
	}, true)
}

func (c *Classifier) result(d internal.ProductDescriptor, f Fields, category string, res Resolution, review bool) internal.ClassificationResult {
	vat := res.VATRate
	if vat == "" {
		vat = defaultVATRate
	}
	return internal.ClassificationResult{
		Code:        res.Code,
		Description: res.Description,
		Category:    category,
		Confidence:  Confidence,
		DutyRate:    res.DutyRate,
		VATRate:     vat,
		Documents:   documentsFor(res.Documents, f.Origin),
		Reasoning:   reasoning(d, category, res.Code),
		NeedsReview: review,
	}
}

func documentsFor(specific []string, origin string) []string {
	out := make([]string, 0, len(specific)+len(baseDocuments)+1)
	seen := make(map[string]bool, cap(out))
	add := func(doc string) {
		if doc == "" || seen[doc] {
			return
		}
		seen[doc] = true
		out = append(out, doc)
	}
	for _, doc := range specific {
		add(doc)
	}
	for _, doc := range baseDocuments {
		add(doc)
	}
	if origin == "" || !eaeu[origin] {
		add(originDocument)
	}
	return out
}

func reasoning(d internal.ProductDescriptor, category, code string) string {
	parts := []string{fmt.Sprintf("Товар: %s", orDash(d.Name))}
	if d.Material != "" {
		parts = append(parts, "материал: "+d.Material)
	}
	if d.Function != "" {
		parts = append(parts, "назначение: "+d.Function)
	}
	if d.OriginCountry != "" {
		parts = append(parts, "страна происхождения: "+d.OriginCountry)
	}
	if category == FallbackCategory {
		parts = append(parts, "ни одно правило не подошло, нужна проверка эксперта")
	} else {
		parts = append(parts, fmt.Sprintf("правило: %s", category), "код: "+code)
	}
	return strings.Join(parts, "; ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Validation compares a declarant's code with the automatic classification.
type Validation struct {
	SuggestedCode   string   `json:"suggested_code"`
	AutoCode        string   `json:"auto_code"`
	Match           bool     `json:"match"`
	Confidence      float64  `json:"confidence"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

func (c *Classifier) Validate(d internal.ProductDescriptor, suggestedCode string) Validation {
	auto := c.Classify(d)
	suggested := util.NormalizeCode(suggestedCode)
	v := Validation{
		SuggestedCode:   suggested,
		AutoCode:        auto.Code,
		Confidence:      auto.Confidence,
		Issues:          []string{},
		Recommendations: []string{},
	}

	switch {
	case suggested == "":
		v.Issues = append(v.Issues, "Код не указан")
	case len(suggested) != 10:
		v.Issues = append(v.Issues, fmt.Sprintf("Код должен содержать 10 цифр, указано %d", len(suggested)))
	}

	if auto.NeedsReview {
		v.Issues = append(v.Issues, "Автоматическая классификация не определила код, требуется экспертиза")
	} else if suggested == auto.Code {
		v.Match = true
		return v
	} else {
		if len(suggested) >= 4 && suggested[:4] == auto.Code[:4] {
			v.Issues = append(v.Issues, fmt.Sprintf("Совпадает только товарная позиция %s, субпозиция отличается от %s", auto.Code[:4], auto.Code))
		} else {
			v.Issues = append(v.Issues, fmt.Sprintf("Предложенный код %s не совпадает с автоматической классификацией %s", orDash(suggested), auto.Code))
		}
	}

	v.Recommendations = append(v.Recommendations,
		"Проверьте основное назначение товара",
		"Уточните материал изготовления",
		"Рассмотрите принцип работы изделия",
	)
	return v
}
