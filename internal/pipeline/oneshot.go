package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vedexpert/internal"
)

// ExtractQueries reads query lines from a file. inputType is one of text,
// html, xlsx, pdf or eml; "auto" picks by file extension.
func ExtractQueries(inputType string, path string) ([]internal.ExtractionItem, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if inputType == "" || inputType == "auto" {
		inputType = inputTypeByExt(path)
	}

	switch inputType {
	case "text", "txt", "csv":
		return parseTextLines(decodeText(blob), internal.SourcePlainText), nil
	case "html", "email_table":
		return parseHTMLTables(decodeText(blob), internal.SourceEmailHTMLTable), nil
	case "xlsx":
		return parseXLSX(blob)
	case "pdf":
		return parsePDF(blob)
	case "eml":
		items, _, _, _, err := ExtractItemsFromEmailRaw(blob)
		return items, err
	default:
		return nil, fmt.Errorf("unsupported input type: %s", inputType)
	}
}

// ExtractQueriesFromText splits literal text into query lines.
func ExtractQueriesFromText(text string) []internal.ExtractionItem {
	return parseTextLines(text, internal.SourcePlainText)
}

func inputTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "xlsx"
	case ".pdf":
		return "pdf"
	case ".html", ".htm":
		return "html"
	case ".eml":
		return "eml"
	default:
		return "text"
	}
}
