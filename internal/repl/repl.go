// Package repl is the interactive console over the classification pipeline.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"vedexpert/internal"
	"vedexpert/internal/advisor"
	"vedexpert/internal/catalog"
	"vedexpert/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	codeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	adviceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Italic(true)
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

const helpText = `Команды:
  /code <код>       найти позицию ТН ВЭД по коду
  /search <текст>   поиск по наименованию
  /stats            статистика запросов и кэша
  /clear            очистить кэш классификации
  /help             эта справка
  /quit             выход
Любой другой ввод классифицируется как описание товара, например:
  кофемашина из Италии за 25000 руб`

// Console reads queries from a liner prompt and prints rendered results.
type Console struct {
	svc         *pipeline.Service
	adv         *advisor.Client
	out         io.Writer
	historyFile string
}

func New(svc *pipeline.Service, adv *advisor.Client, historyFile string, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{svc: svc, adv: adv, out: out, historyFile: historyFile}
}

// Run loops until /quit, Ctrl+C, Ctrl+D or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	c.loadHistory(line)
	defer c.saveHistory(line)

	fmt.Fprintln(c.out, titleStyle.Render("VED Expert: классификация по ТН ВЭД и расчет таможенных платежей"))
	fmt.Fprintf(c.out, "%s\n\n", labelStyle.Render(fmt.Sprintf("Справочник: %d позиций. /help для справки.", c.svc.Catalog().Len())))

	for ctx.Err() == nil {
		input, err := line.Prompt("вэд> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if !c.Handle(ctx, input) {
			return nil
		}
	}
	return ctx.Err()
}

// Handle executes one input line and reports whether the session continues.
func (c *Console) Handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		c.classify(ctx, input)
		return true
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit", "/q":
		fmt.Fprintln(c.out, labelStyle.Render("До свидания"))
		return false
	case "/help", "/?":
		fmt.Fprintln(c.out, helpText)
	case "/code":
		c.lookup(arg)
	case "/search":
		c.search(arg)
	case "/stats":
		c.stats()
	case "/clear":
		c.svc.ClearCache()
		fmt.Fprintln(c.out, labelStyle.Render("Кэш очищен"))
	default:
		fmt.Fprintf(c.out, "%s неизвестная команда %s, /help для справки\n", errorStyle.Render("[Ошибка]"), cmd)
	}
	return true
}

func (c *Console) classify(ctx context.Context, text string) {
	q := c.svc.ClassifyAndPrice(text, 1)
	fmt.Fprintln(c.out, RenderQuote(q))
	if q.Classification != nil && c.adv.Enabled() {
		if advice := c.adv.Advise(ctx, q); advice != "" {
			fmt.Fprintln(c.out, adviceStyle.Render("Совет: "+advice))
		}
	}
}

func (c *Console) lookup(code string) {
	if code == "" {
		fmt.Fprintln(c.out, warnStyle.Render("Использование: /code <код ТН ВЭД>"))
		return
	}
	res := c.svc.Lookup(code)
	if res.Status != internal.LookupFound {
		fmt.Fprintln(c.out, warnStyle.Render("Код не найден: "+code))
		return
	}
	fmt.Fprintln(c.out, renderEntry(*res.Entry))
	for _, m := range res.Matches[min(1, len(res.Matches)):] {
		fmt.Fprintln(c.out, renderEntryLine(m))
	}
}

func (c *Console) search(text string) {
	if len([]rune(text)) < 2 {
		fmt.Fprintln(c.out, warnStyle.Render("Использование: /search <не менее 2 символов>"))
		return
	}
	results := c.svc.Catalog().SearchByName(text, catalog.DefaultSearchLimit)
	if len(results) == 0 {
		fmt.Fprintln(c.out, warnStyle.Render("Ничего не найдено"))
		return
	}
	fmt.Fprintln(c.out, titleStyle.Render(fmt.Sprintf("Найдено: %d", len(results))))
	for _, e := range results {
		fmt.Fprintln(c.out, renderEntryLine(e))
	}
}

func (c *Console) stats() {
	st := c.svc.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Запросов: %d (классифицировано %d, не определено %d)\n", st.TotalQueries, st.Classified, st.NotClassified)
	fmt.Fprintf(&b, "Поисков по коду: %d\n", st.Lookups)
	fmt.Fprintf(&b, "Кэш: %d записей, попаданий %d, промахов %d", st.CacheSize, st.Hits, st.Misses)
	for _, pc := range st.PopularCodes {
		fmt.Fprintf(&b, "\n  %s  %d", pc.Code, pc.Count)
	}
	fmt.Fprintln(c.out, summaryStyle.Render(b.String()))
}

// RenderQuote formats a quote for the terminal.
func RenderQuote(q pipeline.Quote) string {
	if q.Status == internal.QuoteNotClassified || q.Classification == nil {
		var b strings.Builder
		b.WriteString(warnStyle.Render(q.Message))
		if len(q.Candidates) > 0 {
			b.WriteString("\n" + labelStyle.Render("Похожие позиции:"))
			for _, cand := range q.Candidates {
				fmt.Fprintf(&b, "\n  %s  %s (%.2f)", codeStyle.Render(cand.Code), cand.Name, cand.Score)
			}
		}
		return b.String()
	}

	res := q.Classification
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", codeStyle.Render(res.Code), res.Description)
	if res.Category != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Категория:"), res.Category)
	}
	if q.Descriptor != nil {
		fmt.Fprintf(&b, "%s %s, %s %s\n", labelStyle.Render("Товар:"), q.Descriptor.Name, labelStyle.Render("страна:"), q.Descriptor.OriginCountry)
	}
	fmt.Fprintf(&b, "%s %s  %s %s  %s %.0f%%\n",
		labelStyle.Render("Пошлина:"), res.DutyRate,
		labelStyle.Render("НДС:"), res.VATRate,
		labelStyle.Render("Уверенность:"), res.Confidence*100)
	if q.CatalogEntry != nil && q.Descriptor != nil {
		if rate, ok := catalog.DutyFor(*q.CatalogEntry, q.Descriptor.OriginCountry); ok {
			fmt.Fprintf(&b, "%s %g%%\n", labelStyle.Render("Пошлина по справочнику:"), rate)
		}
	}
	if q.Cost != nil {
		for _, li := range q.Cost.LineItems {
			fmt.Fprintf(&b, "  %-28s %s\n", li.Label, li.Amount)
		}
		fmt.Fprintf(&b, "%s %s", labelStyle.Render("Итого:"), codeStyle.Render(q.Cost.TotalCost.StringFixed(2)+" руб"))
	}
	if len(res.Documents) > 0 {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Документы:"), strings.Join(res.Documents, "; "))
	}
	out := summaryStyle.Render(b.String())
	if res.NeedsReview {
		out += "\n" + warnStyle.Render("Требуется проверка эксперта")
	}
	if q.FromCache {
		out += "\n" + labelStyle.Render("(из кэша)")
	}
	return out
}

func renderEntry(e internal.TariffEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", codeStyle.Render(e.Code), e.Name)
	if e.Description != "" {
		fmt.Fprintf(&b, "\n%s", e.Description)
	}
	if e.Group != "" {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Группа:"), e.Group)
	}
	if len(e.Duties) > 0 {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Пошлина:"), catalog.FormatDuties(e.Duties))
	}
	if len(e.Certification) > 0 {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Документы:"), strings.Join(e.Certification, "; "))
	}
	if len(e.Restrictions) > 0 {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Ограничения:"), strings.Join(e.Restrictions, "; "))
	}
	return summaryStyle.Render(b.String())
}

func renderEntryLine(e internal.TariffEntry) string {
	return fmt.Sprintf("  %s  %s", codeStyle.Render(e.Code), e.Name)
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, cmd := range []string{"/code ", "/search ", "/stats", "/clear", "/help", "/quit"} {
		if strings.HasPrefix(cmd, line) {
			out = append(out, cmd)
		}
	}
	return out
}

func (c *Console) loadHistory(line *liner.State) {
	if c.historyFile == "" {
		return
	}
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		slog.Debug("read repl history", "file", c.historyFile, "error", err)
	}
}

func (c *Console) saveHistory(line *liner.State) {
	if c.historyFile == "" {
		return
	}
	f, err := os.Create(c.historyFile)
	if err != nil {
		slog.Warn("save repl history", "file", c.historyFile, "error", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		slog.Warn("save repl history", "file", c.historyFile, "error", err)
	}
}
