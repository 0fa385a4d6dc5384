package pipeline

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^--+$`),
	regexp.MustCompile(`(?i)^спасибо`),
	regexp.MustCompile(`(?i)^с уважением`),
	regexp.MustCompile(`(?i)^добрый (день|вечер)`),
	regexp.MustCompile(`(?i)^здравствуйте`),
	regexp.MustCompile(`(?i)^тел[:\s]`),
	regexp.MustCompile(`(?i)^e-?mail[:\s]`),
	regexp.MustCompile(`(?i)^http`),
	regexp.MustCompile(`^>`),
}

var (
	reLetters    = regexp.MustCompile(`\p{L}`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reOnlyNum    = regexp.MustCompile(`^\d[\d\s.,]*$`)
	reListMark   = regexp.MustCompile(`^(?:\d{1,3}[.)]\s+|[-*•]\s*)`)
	reSeparators = regexp.MustCompile(`[;|]+`)
)

const minQueryLen = 4

var (
	nameProbes    = []string{"наимен", "товар", "описан", "номенк", "позиц", "name", "product", "description"}
	qtyProbes     = []string{"кол", "qty", "quantity"}
	unitProbes    = []string{"ед", "unit", "изм"}
	countryProbes = []string{"стран", "country", "происхожд"}
	priceProbes   = []string{"стоимост", "цена", "price", "value", "сумма"}
)

// ExtractItemsFromEmailRaw parses a MIME message into query lines from the
// text body, HTML tables and spreadsheet/PDF attachments.
func ExtractItemsFromEmailRaw(raw []byte) ([]internal.ExtractionItem, string, string, []string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", nil, err
	}

	items := make([]internal.ExtractionItem, 0)
	if env.HTML != "" {
		items = append(items, parseHTMLTables(env.HTML, internal.SourceEmailHTMLTable)...)
	}
	if env.Text != "" && len(items) == 0 {
		items = append(items, parseTextLines(env.Text, internal.SourceEmailText)...)
	}

	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		attachmentNames = append(attachmentNames, filename)
		lower := strings.ToLower(filename)

		var extra []internal.ExtractionItem
		switch {
		case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
			extra, err = parseXLSX(att.Content)
		case strings.HasSuffix(lower, ".pdf"):
			extra, err = parsePDF(att.Content)
		case strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".csv"):
			extra, err = parseTextLines(decodeText(att.Content), internal.SourcePlainText), nil
		default:
			continue
		}
		if err != nil {
			continue
		}
		for i := range extra {
			if extra[i].Meta == nil {
				extra[i].Meta = map[string]any{}
			}
			extra[i].Meta["attachment"] = filename
		}
		items = append(items, extra...)
	}

	items = dedupeItems(items)
	for i := range items {
		items[i].LineNo = i + 1
	}

	return items, env.GetHeader("Subject"), env.Text, attachmentNames, nil
}

// decodeText returns content as UTF-8, treating invalid UTF-8 as cp1251.
func decodeText(content []byte) string {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}

func parseTextLines(text string, source internal.ItemSource) []internal.ExtractionItem {
	lines := splitLines(text)
	out := make([]internal.ExtractionItem, 0, len(lines))
	lineNo := 0
	for _, line := range lines {
		lineNo++
		item := lineToExtractionItem(source, lineNo, line)
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func parseHTMLTables(html string, source internal.ItemSource) []internal.ExtractionItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.ExtractionItem{}
	globalLine := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})
		cols := inferColumns(headers)
		if cols.name < 0 {
			return
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			item := cols.item(source, cells)
			if item == nil {
				return
			}
			globalLine++
			item.LineNo = globalLine
			out = append(out, *item)
		})
	})

	return out
}

func parseXLSX(content []byte) ([]internal.ExtractionItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lineNo := 0
	out := []internal.ExtractionItem{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		cols := columns{name: -1, qty: -1, unit: -1, country: -1, price: -1}
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 3 && cols.name < 0 {
				lowered := make([]string, len(cells))
				for j, c := range cells {
					lowered[j] = strings.ToLower(c)
				}
				if inferred := inferColumns(lowered); inferred.name >= 0 {
					cols = inferred
					continue
				}
			}
			if cols.name < 0 {
				cols = columns{name: 0, qty: 1, unit: 2, country: -1, price: -1}
			}

			item := cols.item(internal.SourceXLSX, cells)
			if item == nil {
				continue
			}
			lineNo++
			item.LineNo = lineNo
			item.Meta["sheet"] = sheet
			item.Meta["rowNumber"] = i + 1
			out = append(out, *item)
		}
	}

	return out, nil
}

func parsePDF(content []byte) ([]internal.ExtractionItem, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	out := []internal.ExtractionItem{}
	lineNo := 0
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range splitLines(text) {
			lineNo++
			item := lineToExtractionItem(internal.SourcePDF, lineNo, line)
			if item == nil {
				continue
			}
			item.Meta["page"] = i
			out = append(out, *item)
		}
	}
	return out, nil
}

type columns struct {
	name, qty, unit, country, price int
}

func inferColumns(headers []string) columns {
	return columns{
		name:    findHeaderIndex(headers, nameProbes),
		qty:     findHeaderIndex(headers, qtyProbes),
		unit:    findHeaderIndex(headers, unitProbes),
		country: findHeaderIndex(headers, countryProbes),
		price:   findHeaderIndex(headers, priceProbes),
	}
}

// item builds a query from a table row: the name cell plus country and
// price cells, so the interpreter sees them as free text.
func (c columns) item(source internal.ItemSource, cells []string) *internal.ExtractionItem {
	if len(cells) == 0 {
		return nil
	}
	name := pickCell(cells, c.name, 0)
	if name == "" || !reLetters.MatchString(name) {
		return nil
	}

	parts := []string{name}
	if country := pickCell(cells, c.country, -1); country != "" {
		parts = append(parts, "из "+country)
	}
	if price := pickCell(cells, c.price, -1); price != "" {
		if reOnlyNum.MatchString(price) {
			price += " руб"
		}
		parts = append(parts, "за "+price)
	}

	qty := 1.0
	var unit *string
	if qtyCell := pickCell(cells, c.qty, -1); qtyCell != "" {
		if v, ok := util.ParseNumber(qtyCell); ok && v > 0 {
			qty = v
		} else if parsed := util.ParseQty(qtyCell); parsed.Found {
			qty, unit = parsed.Qty, parsed.Unit
		}
	}
	if u := pickCell(cells, c.unit, -1); u != "" {
		unit = util.StringPtr(u)
	}

	return &internal.ExtractionItem{
		Source: source,
		Query:  strings.Join(parts, " "),
		Qty:    qty,
		Unit:   unit,
		Meta:   map[string]any{"row": strings.Join(cells, " | ")},
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lineToExtractionItem strips list markers and an explicit "N шт" quantity
// from a line; the rest is the query.
func lineToExtractionItem(source internal.ItemSource, lineNo int, rawLine string) *internal.ExtractionItem {
	compact := normalizeSpaces(rawLine)
	if compact == "" || isLikelyNoise(compact) || !reLetters.MatchString(compact) {
		return nil
	}
	compact = reListMark.ReplaceAllString(compact, "")

	parsed := util.ParseQty(compact)
	q := compact
	if parsed.QtyRaw != nil {
		if idx := strings.LastIndex(q, *parsed.QtyRaw); idx >= 0 {
			q = q[:idx] + " " + q[idx+len(*parsed.QtyRaw):]
		}
	}
	q = strings.Trim(normalizeSpaces(reSeparators.ReplaceAllString(q, " ")), " ,.-")
	if len([]rune(q)) < minQueryLen {
		return nil
	}

	item := internal.ExtractionItem{
		LineNo: lineNo,
		Source: source,
		Query:  q,
		Qty:    parsed.Qty,
		Unit:   parsed.Unit,
		Meta:   map[string]any{"raw": compact},
	}
	if parsed.QtyRaw != nil {
		item.Meta["qtyRaw"] = *parsed.QtyRaw
	}
	return &item
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func dedupeItems(items []internal.ExtractionItem) []internal.ExtractionItem {
	seen := map[string]struct{}{}
	out := make([]internal.ExtractionItem, 0, len(items))
	for _, item := range items {
		key := util.NormalizeText(item.Query) + "|" + fmt.Sprintf("%g", item.Qty)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func findHeaderIndex(headers []string, aliases []string) int {
	for i, h := range headers {
		for _, alias := range aliases {
			if strings.Contains(h, alias) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}
