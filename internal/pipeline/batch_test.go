package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vedexpert/internal"
)

func TestClassifyBatch(t *testing.T) {
	s := newTestService()
	items := ExtractQueriesFromText("Кофемашина DeLonghi из Италии за 25000 руб 2 шт\nмикроскоп лабораторный\nкакая-то непонятная штука")

	lines, sum := s.ClassifyBatch(items)
	require.Len(t, lines, 3)
	assert.Equal(t, BatchSummary{Lines: 3, Classified: 1, NeedsReview: 0, NotClassified: 2}, sum)

	first := lines[0].Quote
	require.Equal(t, internal.QuoteClassified, first.Status)
	assert.Equal(t, 2, first.Cost.Quantity)
	assert.Equal(t, "8516710000", first.Classification.Code)

	assert.Equal(t, internal.QuoteNotClassified, lines[1].Quote.Status)
	assert.NotEmpty(t, lines[1].Quote.Candidates)
}

func TestQuantityOf(t *testing.T) {
	assert.Equal(t, 1, quantityOf(0))
	assert.Equal(t, 1, quantityOf(-3))
	assert.Equal(t, 2, quantityOf(2))
	assert.Equal(t, 3, quantityOf(2.5))
}

func TestExportRows(t *testing.T) {
	s := newTestService()
	lines, _ := s.ClassifyBatch(ExtractQueriesFromText("Кофемашина DeLonghi из Италии за 25000 руб\nмикроскоп лабораторный"))
	rows := ExportRows(lines)
	require.Len(t, rows, 2)

	assert.Equal(t, "CLASSIFIED", rows[0].Status)
	assert.Equal(t, "8516710000", rows[0].Code)
	assert.Equal(t, "IT", rows[0].Origin)
	assert.Equal(t, "25000.00", rows[0].DeclaredValue)
	assert.Equal(t, "2125.00", rows[0].DutyAmount)
	assert.Equal(t, "35050.00", rows[0].TotalCost)
	assert.Contains(t, rows[0].Documents, "; ")
	assert.Nil(t, rows[0].Candidate)

	assert.Equal(t, "NOT_CLASSIFIED", rows[1].Status)
	assert.Empty(t, rows[1].Code)
	require.NotNil(t, rows[1].CandidateCode)
	assert.Contains(t, []string{"9011800000", "9011100000"}, *rows[1].CandidateCode)
}

func TestExportQuotesToXLSX(t *testing.T) {
	s := newTestService()
	lines, _ := s.ClassifyBatch(ExtractQueriesFromText("Кофемашина DeLonghi из Италии за 25000 руб"))
	out := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	require.NoError(t, ExportQuotesToXLSX(ExportRows(lines), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)

	header, err := f.GetCellValue(sheet, "F1")
	require.NoError(t, err)
	assert.Equal(t, "tnved_code", header)

	code, err := f.GetCellValue(sheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "8516710000", code)

	total, err := f.GetCellValue(sheet, "P2")
	require.NoError(t, err)
	assert.Equal(t, "35050.00", total)

	review, err := f.GetCellValue(sheet, "Q2")
	require.NoError(t, err)
	assert.Equal(t, "нет", review)
}
