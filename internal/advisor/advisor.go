package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"vedexpert/internal/config"
	"vedexpert/internal/pipeline"
)

const maxAttempts = 3

const systemPrompt = "Ты эксперт по таможенному оформлению в ЕАЭС. Кратко (не более 5 предложений) прокомментируй " +
	"классификацию товара по ТН ВЭД и расчет платежей: риски неверного кода, документы, на что обратить внимание."

// Client asks an OpenAI-compatible chat completions endpoint to comment on
// a finished quote. A zero BaseURL disables it.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	retryBase  time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func New(cfg config.Config) *Client {
	rps := cfg.AdvisorRPS
	if rps <= 0 {
		rps = 1
	}
	timeout := time.Duration(cfg.AdvisorTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.AdvisorBaseURL), "/"),
		apiKey:     cfg.AdvisorAPIKey,
		model:      cfg.AdvisorModel,
		timeout:    timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retryBase:  300 * time.Millisecond,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Advise returns a short expert comment on q, or "" when the advisor is
// disabled, the quote is not classified or the call fails.
func (c *Client) Advise(ctx context.Context, q pipeline.Quote) string {
	if !c.Enabled() || q.Classification == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildPrompt(q)},
	})
	if err != nil {
		slog.Warn("advisor request failed", "model", c.model, "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// BuildPrompt renders the quote as the user message.
func BuildPrompt(q pipeline.Quote) string {
	var b strings.Builder
	if q.Query != "" {
		fmt.Fprintf(&b, "Запрос: %s\n", q.Query)
	}
	if d := q.Descriptor; d != nil {
		fmt.Fprintf(&b, "Товар: %s; материал: %s; назначение: %s; страна: %s; стоимость: %s %s\n",
			d.Name, d.Material, d.Function, d.OriginCountry, d.DeclaredValue.StringFixed(2), orRUB(d.Currency))
	}
	if r := q.Classification; r != nil {
		fmt.Fprintf(&b, "Код ТН ВЭД: %s (%s)\nПошлина: %s, НДС: %s\n", r.Code, r.Description, r.DutyRate, r.VATRate)
		if len(r.Documents) > 0 {
			fmt.Fprintf(&b, "Документы: %s\n", strings.Join(r.Documents, ", "))
		}
		if r.NeedsReview {
			b.WriteString("Автоматическая классификация не определила код.\n")
		}
	}
	if cb := q.Cost; cb != nil {
		fmt.Fprintf(&b, "Итого к оплате: %s руб\n", cb.TotalCost.StringFixed(2))
	}
	return b.String()
}

func orRUB(currency string) string {
	if currency == "" {
		return "RUB"
	}
	return currency
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Temperature: 0.2, MaxTokens: 400})
	if err != nil {
		return "", err
	}

	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(c.retryBase))
	var out string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("advisor status=%d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("advisor status=%d", resp.StatusCode)
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode advisor response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("advisor returned no choices")
		}
		out = parsed.Choices[0].Message.Content
		return nil
	})
	return out, err
}
