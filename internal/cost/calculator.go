package cost

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"vedexpert/internal"
)

var reRate = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

var (
	hundred = decimal.NewFromInt(100)

	DefaultVATRate       = decimal.NewFromInt(20)
	DefaultMinCustomsFee = decimal.NewFromInt(500)
	DefaultCustomsFeePct = decimal.NewFromInt(1)
	DefaultBrokerLimit   = decimal.NewFromInt(10000)
	DefaultBrokerHigh    = decimal.NewFromInt(2000)
	DefaultBrokerLow     = decimal.NewFromInt(1000)
)

// Calculator computes landed customs cost. Percentages are in percent units.
type Calculator struct {
	VATRate       decimal.Decimal
	MinCustomsFee decimal.Decimal
	CustomsFeePct decimal.Decimal
	BrokerLimit   decimal.Decimal
	BrokerHigh    decimal.Decimal
	BrokerLow     decimal.Decimal
}

func NewCalculator() *Calculator {
	return &Calculator{
		VATRate:       DefaultVATRate,
		MinCustomsFee: DefaultMinCustomsFee,
		CustomsFeePct: DefaultCustomsFeePct,
		BrokerLimit:   DefaultBrokerLimit,
		BrokerHigh:    DefaultBrokerHigh,
		BrokerLow:     DefaultBrokerLow,
	}
}

// ParseRate returns the first number in s as a fraction ("8.5%" is 0.085).
// A string without digits yields zero.
func ParseRate(s string) decimal.Decimal {
	m := reRate.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d.Div(hundred)
}

// Compute never fails: a non-positive value is treated as zero and a
// quantity below one as one.
func (c *Calculator) Compute(res internal.ClassificationResult, declaredValue decimal.Decimal, quantity int) internal.CostBreakdown {
	if declaredValue.IsNegative() {
		declaredValue = decimal.Zero
	}
	if quantity < 1 {
		quantity = 1
	}
	qty := decimal.NewFromInt(int64(quantity))

	dutyRate := ParseRate(res.DutyRate)
	vatRate := c.VATRate.Div(hundred)
	if strings.TrimSpace(res.VATRate) != "" {
		vatRate = ParseRate(res.VATRate)
	}

	customsValue := declaredValue.Mul(qty)
	duty := declaredValue.Mul(dutyRate).Mul(qty)
	vatBase := customsValue.Add(duty)
	vat := vatBase.Mul(vatRate)

	customsFee := decimal.Max(c.MinCustomsFee, declaredValue.Mul(c.CustomsFeePct).Div(hundred))
	brokerFee := c.BrokerLow
	if declaredValue.GreaterThan(c.BrokerLimit) {
		brokerFee = c.BrokerHigh
	}

	taxes := duty.Add(vat)
	fees := customsFee.Add(brokerFee)
	b := internal.CostBreakdown{
		DeclaredValue: declaredValue,
		Quantity:      quantity,
		DutyRate:      dutyRate,
		VATRate:       vatRate,
		CustomsValue:  customsValue,
		DutyAmount:    duty,
		VATBase:       vatBase,
		VATAmount:     vat,
		CustomsFee:    customsFee,
		BrokerFee:     brokerFee,
		TotalTaxes:    taxes,
		TotalFees:     fees,
		TotalCost:     customsValue.Add(taxes).Add(fees),
	}
	b.LineItems = lineItems(b)
	return b
}

func lineItems(b internal.CostBreakdown) []internal.CostLine {
	return []internal.CostLine{
		{Label: "Таможенная стоимость", Amount: b.CustomsValue.StringFixed(2)},
		{Label: fmt.Sprintf("Пошлина (%s%%)", b.DutyRate.Mul(hundred).String()), Amount: b.DutyAmount.StringFixed(2)},
		{Label: "База НДС", Amount: b.VATBase.StringFixed(2)},
		{Label: fmt.Sprintf("НДС (%s%%)", b.VATRate.Mul(hundred).String()), Amount: b.VATAmount.StringFixed(2)},
		{Label: "Таможенный сбор", Amount: b.CustomsFee.StringFixed(2)},
		{Label: "Услуги брокера", Amount: b.BrokerFee.StringFixed(2)},
		{Label: "Итого налоги", Amount: b.TotalTaxes.StringFixed(2)},
		{Label: "Итого сборы", Amount: b.TotalFees.StringFixed(2)},
		{Label: "Итого к оплате", Amount: b.TotalCost.StringFixed(2)},
	}
}

// FormatBreakdown renders the breakdown as aligned text lines.
func FormatBreakdown(b internal.CostBreakdown) string {
	var sb strings.Builder
	width := 0
	for _, li := range b.LineItems {
		if n := len([]rune(li.Label)); n > width {
			width = n
		}
	}
	for _, li := range b.LineItems {
		pad := width - len([]rune(li.Label))
		fmt.Fprintf(&sb, "%s:%s %s руб.\n", li.Label, strings.Repeat(" ", pad), li.Amount)
	}
	return sb.String()
}
