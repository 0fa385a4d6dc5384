package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vedexpert/internal"
	"vedexpert/internal/api"
	"vedexpert/internal/app"
	"vedexpert/internal/catalog"
	"vedexpert/internal/config"
	"vedexpert/internal/connectors"
	gmailconnector "vedexpert/internal/connectors/gmail"
	imapconnector "vedexpert/internal/connectors/imap"
	"vedexpert/internal/cost"
	"vedexpert/internal/listener"
	"vedexpert/internal/logging"
	"vedexpert/internal/pipeline"
	"vedexpert/internal/repl"
	"vedexpert/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		svc, err := app.Build(ctx, cfg)
		must(err)
		must(api.NewServer(svc, app.Advisor(cfg), cfg).Run(ctx, *addr))
	case "classify":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		text := fs.String("text", "", "product description, e.g. \"кофемашина из Италии за 25000 руб\"")
		qty := fs.Int("qty", 1, "quantity")
		advice := fs.Bool("advice", false, "ask the advisor for a comment")
		asJSON := fs.Bool("json", false, "print JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*text) == "" {
			must(fmt.Errorf("--text is required"))
		}
		svc, err := app.Build(ctx, cfg)
		must(err)
		q := svc.ClassifyAndPrice(*text, max(*qty, 1))
		adv := ""
		if *advice {
			adv = app.Advisor(cfg).Advise(ctx, q)
		}
		if *asJSON {
			printJSON(struct {
				pipeline.Quote
				Advice string `json:"advice,omitempty"`
			}{q, adv})
			return
		}
		printQuote(q)
		if adv != "" {
			fmt.Printf("\nСовет: %s\n", adv)
		}
	case "lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		q := fs.String("q", "", "tariff code or product name")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*q) == "" {
			must(fmt.Errorf("--q is required"))
		}
		svc, err := app.Build(ctx, cfg)
		must(err)
		res := svc.Lookup(*q)
		switch {
		case res.Status != internal.LookupFound:
			fmt.Println(catalog.FormatSearchResults(nil, *q))
			os.Exit(2)
		case len(res.Matches) > 0:
			fmt.Println(catalog.FormatSearchResults(res.Matches, *q))
		default:
			fmt.Println(catalog.FormatEntry(*res.Entry))
		}
	case "batch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		inType := fs.String("type", "auto", "auto|text|html|xlsx|pdf|eml")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		items, err := pipeline.ExtractQueries(*inType, *input)
		must(err)
		if len(items) == 0 {
			must(fmt.Errorf("no product lines found in %s", *input))
		}
		svc, err := app.Build(ctx, cfg)
		must(err)
		lines, summary := svc.ClassifyBatch(items)
		must(pipeline.ExportQuotesToXLSX(pipeline.ExportRows(lines), *output))
		fmt.Printf("batch done lines=%d classified=%d needs_review=%d not_classified=%d output=%s\n",
			summary.Lines, summary.Classified, summary.NeedsReview, summary.NotClassified, *output)
	case "catalog:stats":
		svc, err := app.Build(ctx, cfg)
		must(err)
		printJSON(svc.Catalog().Statistics())
	case "repl":
		svc, err := app.Build(ctx, cfg)
		must(err)
		must(repl.New(svc, app.Advisor(cfg), cfg.REPLHistoryFile, os.Stdout).Run(ctx))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		limit := fs.Int("max", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		conn, err := makeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(ctx, *label, *limit)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n", *provider, result.Fetched, result.Stored, result.Skipped)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		emailID := fs.Int("emailId", 0, "internal email id")
		batch := fs.Int("batch", cfg.MailListenerProcessBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		svc, err := app.Build(ctx, cfg)
		must(err)
		processor := pipeline.NewProcessingService(db, svc)
		if *emailID != 0 || strings.TrimSpace(*messageID) != "" {
			var res pipeline.ProcessResult
			if *emailID != 0 {
				res, err = processor.ProcessByID(*emailID)
			} else {
				res, err = processor.ProcessByProviderMessageID(*provider, *messageID)
			}
			must(err)
			fmt.Printf("processed email id=%d lines=%d classified=%d needs_review=%d\n",
				res.EmailID, res.Processed, res.Summary.Classified, res.Summary.NeedsReview)
			return
		}
		processedEmails, processedLines, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d lines=%d\n", processedEmails, processedLines)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		emailID := fs.Int("emailId", 0, "internal email id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *emailID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--emailId and --out are required"))
		}
		db := openDB(cfg)
		defer db.Close()
		email, err := db.GetEmailByID(*emailID)
		must(err)
		if email == nil {
			must(fmt.Errorf("email not found: id=%d", *emailID))
		}
		rows, err := db.GetExportRows(email.ID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for emailId=%d", *emailID))
		}
		must(pipeline.ExportQuotesToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "mail:listen":
		db := openDB(cfg)
		defer db.Close()
		svc, err := app.Build(ctx, cfg)
		must(err)
		must(listener.NewService(db, cfg, svc).Run(ctx))
	case "mail:status":
		db := openDB(cfg)
		defer db.Close()
		last, ok, err := listener.NewService(db, cfg, nil).LastCycle()
		must(err)
		if !ok {
			fmt.Println("listener has not completed a cycle yet")
			return
		}
		fmt.Printf("listener last cycle: %s\n", last.Local().Format(time.DateTime))
	default:
		usage()
		os.Exit(1)
	}
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func makeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func printQuote(q pipeline.Quote) {
	if q.Classification == nil {
		fmt.Println(q.Message)
		for i, c := range q.Candidates {
			fmt.Printf("%d. %s - %s (%.2f)\n", i+1, c.Code, c.Name, c.Score)
		}
		return
	}
	res := q.Classification
	fmt.Printf("Код ТН ВЭД: %s\n", res.Code)
	fmt.Printf("Описание: %s\n", res.Description)
	fmt.Printf("Пошлина: %s, НДС: %s, уверенность: %.0f%%\n", res.DutyRate, res.VATRate, res.Confidence*100)
	if len(res.Documents) > 0 {
		fmt.Printf("Документы: %s\n", strings.Join(res.Documents, "; "))
	}
	if q.Cost != nil {
		fmt.Println()
		fmt.Print(cost.FormatBreakdown(*q.Cost))
	}
	if q.Message != "" {
		fmt.Println(q.Message)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: vedexpert <command>")
	fmt.Println("commands:")
	fmt.Println("  serve [--addr=:8080]")
	fmt.Println("  classify --text=\"кофемашина из Италии за 25000 руб\" [--qty=1] [--advice] [--json]")
	fmt.Println("  lookup --q=8516710000")
	fmt.Println("  batch --input=request.xlsx [--type=auto|text|html|xlsx|pdf|eml] --output=./out/quote.xlsx")
	fmt.Println("  catalog:stats")
	fmt.Println("  repl")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...|--emailId=1] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  mail:status")
	fmt.Println("  export:xlsx --emailId=1 --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
