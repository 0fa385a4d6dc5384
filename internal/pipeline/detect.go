package pipeline

import (
	"regexp"
	"strings"
)

type DetectResult struct {
	IsRequest bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{
	"тн вэд", "тнвэд", "классифик", "пошлин", "растаможк", "таможн",
	"ввоз", "импорт", "код товар", "декларац", "hs code",
}

var reAmount = regexp.MustCompile(`\d[\d\s]*(?:руб|₽|\$|€|usd|eur)`)

// DetectClassificationRequest scores a mail message on whether it asks for
// tariff codes or import costs.
func DetectClassificationRequest(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0.0
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.25
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.15
		}
	}

	amounts := len(reAmount.FindAllString(text, -1))
	if amounts >= 2 {
		score += 0.3
	} else if amounts == 1 {
		score += 0.15
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") || strings.HasSuffix(ln, ".pdf") {
			score += 0.2
			break
		}
	}

	if strings.Contains(html, "<table") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}

	isRequest := score >= 0.4
	reason := "rules_negative"
	if isRequest {
		reason = "rules_positive"
	}

	return DetectResult{IsRequest: isRequest, Score: score, Reason: reason}
}
