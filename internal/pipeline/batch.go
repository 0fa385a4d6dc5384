package pipeline

import (
	"math"
	"strings"

	"vedexpert/internal"
)

type BatchLine struct {
	Item  internal.ExtractionItem
	Quote Quote
}

type BatchSummary struct {
	Lines         int `json:"lines"`
	Classified    int `json:"classified"`
	NeedsReview   int `json:"needs_review"`
	NotClassified int `json:"not_classified"`
}

// ClassifyBatch prices every extracted line in order.
func (s *Service) ClassifyBatch(items []internal.ExtractionItem) ([]BatchLine, BatchSummary) {
	out := make([]BatchLine, 0, len(items))
	var sum BatchSummary
	for _, item := range items {
		q := s.ClassifyAndPrice(item.Query, quantityOf(item.Qty))
		out = append(out, BatchLine{Item: item, Quote: q})

		sum.Lines++
		switch {
		case q.Status == internal.QuoteNotClassified:
			sum.NotClassified++
		case q.Classification != nil && q.Classification.NeedsReview:
			sum.NeedsReview++
		default:
			sum.Classified++
		}
	}
	return out, sum
}

func quantityOf(qty float64) int {
	if qty < 1 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 1
	}
	return int(math.Ceil(qty))
}

// ExportRow flattens one priced line for the report and the mail ledger.
func ExportRow(line BatchLine) internal.QuoteExportRow {
	q := line.Quote
	row := internal.QuoteExportRow{
		InputLineNo: line.Item.LineNo,
		Source:      string(line.Item.Source),
		Query:       line.Item.Query,
		Qty:         line.Item.Qty,
		Status:      string(q.Status),
	}
	if q.Descriptor != nil {
		row.Origin = q.Descriptor.OriginCountry
		row.DeclaredValue = q.Descriptor.DeclaredValue.StringFixed(2)
	}
	if c := q.Classification; c != nil {
		row.Code = c.Code
		row.Description = c.Description
		row.Category = c.Category
		row.DutyRate = c.DutyRate
		row.VATRate = c.VATRate
		row.NeedsReview = c.NeedsReview
		row.Documents = strings.Join(c.Documents, "; ")
	}
	if b := q.Cost; b != nil {
		row.DutyAmount = b.DutyAmount.StringFixed(2)
		row.VATAmount = b.VATAmount.StringFixed(2)
		row.TotalFees = b.TotalFees.StringFixed(2)
		row.TotalCost = b.TotalCost.StringFixed(2)
	}
	if len(q.Candidates) > 0 {
		name, code := q.Candidates[0].Name, q.Candidates[0].Code
		row.Candidate = &name
		row.CandidateCode = &code
	}
	return row
}

func ExportRows(lines []BatchLine) []internal.QuoteExportRow {
	out := make([]internal.QuoteExportRow, 0, len(lines))
	for _, l := range lines {
		out = append(out, ExportRow(l))
	}
	return out
}
