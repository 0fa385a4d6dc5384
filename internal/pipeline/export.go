package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"vedexpert/internal"
)

var exportHeaders = []string{
	"input_line_no", "source", "query", "qty",
	"status", "tnved_code", "description", "category", "origin", "declared_value",
	"duty_rate", "vat_rate", "duty_amount", "vat_amount", "total_fees", "total_cost",
	"needs_review", "documents", "candidate_code", "candidate_name",
}

func ExportQuotesToXLSX(rows []internal.QuoteExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.InputLineNo)
		set(2, row.Source)
		set(3, row.Query)
		set(4, row.Qty)
		set(5, row.Status)
		set(6, row.Code)
		set(7, row.Description)
		set(8, row.Category)
		set(9, row.Origin)
		set(10, row.DeclaredValue)
		set(11, row.DutyRate)
		set(12, row.VATRate)
		set(13, row.DutyAmount)
		set(14, row.VATAmount)
		set(15, row.TotalFees)
		set(16, row.TotalCost)
		set(17, yesNo(row.NeedsReview))
		set(18, row.Documents)
		set(19, derefString(row.CandidateCode))
		set(20, derefString(row.Candidate))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
