package pipeline

import (
	"bytes"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"vedexpert/internal"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func mkEmail(subject string, body string) []byte {
	var b strings.Builder
	b.WriteString("From: client@example.com\r\n")
	b.WriteString("To: broker@example.com\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Message-ID: <fixture-1@example.com>\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func queriesOf(items []internal.ExtractionItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Query)
	}
	return out
}

func TestParseTextLines(t *testing.T) {
	text := "\n1. Кофемашина DeLonghi из Италии за 25000 руб 2 шт\n- Смартфон Samsung из Кореи\nС уважением,\n--\n12345\n"
	items := parseTextLines(text, internal.SourcePlainText)
	require.Len(t, items, 2)

	assert.Equal(t, "Кофемашина DeLonghi из Италии за 25000 руб", items[0].Query)
	assert.Equal(t, 2.0, items[0].Qty)
	require.NotNil(t, items[0].Unit)
	assert.Equal(t, "шт", *items[0].Unit)
	assert.Equal(t, 1, items[0].LineNo)

	assert.Equal(t, "Смартфон Samsung из Кореи", items[1].Query)
	assert.Equal(t, 1.0, items[1].Qty)
	assert.Nil(t, items[1].Unit)
}

func TestParseTextLinesKeepsPriceAndModelNumbers(t *testing.T) {
	items := ExtractQueriesFromText("Ноутбук ThinkPad T14 из Китая за 120к")
	require.Len(t, items, 1)
	assert.Equal(t, "Ноутбук ThinkPad T14 из Китая за 120к", items[0].Query)
	assert.Equal(t, 1.0, items[0].Qty)
}

func TestParseHTMLTables(t *testing.T) {
	html := `<table>
<tr><th>Наименование</th><th>Кол-во</th><th>Страна</th><th>Стоимость</th></tr>
<tr><td>Кофемашина DeLonghi</td><td>2</td><td>Италия</td><td>25 000</td></tr>
<tr><td>Ноутбук Lenovo</td><td>1</td><td></td><td>50000 руб</td></tr>
<tr><td>12</td><td>1</td><td></td><td></td></tr>
</table>`
	items := parseHTMLTables(html, internal.SourceEmailHTMLTable)
	require.Len(t, items, 2)
	assert.Equal(t, "Кофемашина DeLonghi из Италия за 25 000 руб", items[0].Query)
	assert.Equal(t, 2.0, items[0].Qty)
	assert.Equal(t, "Ноутбук Lenovo за 50000 руб", items[1].Query)
	assert.Equal(t, 2, items[1].LineNo)
}

func TestParseHTMLTablesWithoutNameColumn(t *testing.T) {
	html := `<table><tr><th>Дата</th><th>Сумма</th></tr><tr><td>01.02</td><td>100</td></tr></table>`
	assert.Empty(t, parseHTMLTables(html, internal.SourceEmailHTMLTable))
}

func TestParseXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"Наименование товара", "Кол-во", "Страна происхождения", "Цена"},
		{"Кофемашина DeLonghi", 2, "Италия", 25000},
		{"Пуховик женский", 10, "Китай", ""},
	})
	items, err := parseXLSX(blob)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Кофемашина DeLonghi из Италия за 25000 руб", items[0].Query)
	assert.Equal(t, 2.0, items[0].Qty)
	assert.Equal(t, "Пуховик женский из Китай", items[1].Query)
	assert.Equal(t, 10.0, items[1].Qty)
	assert.Equal(t, 3, items[1].Meta["rowNumber"])
}

func TestParseXLSXWithoutHeader(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"Смартфон Xiaomi", 5, "шт"},
	})
	items, err := parseXLSX(blob)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Смартфон Xiaomi", items[0].Query)
	assert.Equal(t, 5.0, items[0].Qty)
	require.NotNil(t, items[0].Unit)
	assert.Equal(t, "шт", *items[0].Unit)
}

func TestDecodeTextCP1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("Ноутбук Lenovo 3 шт")
	require.NoError(t, err)
	assert.Equal(t, "Ноутбук Lenovo 3 шт", decodeText([]byte(encoded)))
	assert.Equal(t, "текст", decodeText([]byte("\xef\xbb\xbfтекст")))
}

func TestExtractQueriesByExtension(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "list.txt")
	encoded, err := charmap.Windows1251.NewEncoder().String("Ноутбук Lenovo 3 шт\nВино красное из Франции\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(txt, []byte(encoded), 0o644))
	items, err := ExtractQueries("auto", txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ноутбук Lenovo", "Вино красное из Франции"}, queriesOf(items))
	assert.Equal(t, 3.0, items[0].Qty)

	xlsx := filepath.Join(dir, "list.xlsx")
	require.NoError(t, os.WriteFile(xlsx, mkXLSX(t, [][]any{{"Товар", "Количество"}, {"Духи Chanel", 4}}), 0o644))
	items, err = ExtractQueries("", xlsx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, internal.SourceXLSX, items[0].Source)

	_, err = ExtractQueries("doc", txt)
	assert.Error(t, err)

	_, err = ExtractQueries("text", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestInputTypeByExt(t *testing.T) {
	cases := map[string]string{
		"a.XLSX": "xlsx",
		"a.xls":  "xlsx",
		"a.pdf":  "pdf",
		"a.htm":  "html",
		"a.eml":  "eml",
		"a.csv":  "text",
		"a":      "text",
	}
	for path, want := range cases {
		assert.Equal(t, want, inputTypeByExt(path), path)
	}
}

func TestExtractItemsFromEmailRaw(t *testing.T) {
	raw := mkEmail("Расчет пошлины и код ТН ВЭД", "Добрый день!\nКофемашина DeLonghi из Италии за 25000 руб 2 шт\nНоутбук Lenovo из Китая за 50000 руб\nКофемашина DeLonghi из Италии за 25000 руб 2 шт\nС уважением\n")

	items, subject, text, attachments, err := ExtractItemsFromEmailRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, "Расчет пошлины и код ТН ВЭД", subject)
	assert.Contains(t, text, "Ноутбук Lenovo")
	assert.Empty(t, attachments)

	require.Len(t, items, 2)
	assert.Equal(t, []string{"Кофемашина DeLonghi из Италии за 25000 руб", "Ноутбук Lenovo из Китая за 50000 руб"}, queriesOf(items))
	assert.Equal(t, 1, items[0].LineNo)
	assert.Equal(t, 2, items[1].LineNo)
	assert.Equal(t, internal.SourceEmailText, items[0].Source)
}

func TestDedupeItemsKeepsDifferentQuantities(t *testing.T) {
	items := []internal.ExtractionItem{
		{Query: "Ноутбук Lenovo", Qty: 1},
		{Query: "ноутбук  lenovo", Qty: 1},
		{Query: "Ноутбук Lenovo", Qty: 2},
	}
	assert.Len(t, dedupeItems(items), 2)
}
