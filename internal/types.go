package internal

import "github.com/shopspring/decimal"

type ItemSource string

const (
	SourcePlainText      ItemSource = "plain_text"
	SourceEmailText      ItemSource = "email_text"
	SourceEmailHTMLTable ItemSource = "email_html_table"
	SourceXLSX           ItemSource = "xlsx"
	SourcePDF            ItemSource = "pdf"
)

type ExtractionItem struct {
	LineNo int
	Source ItemSource
	Query  string
	Qty    float64
	Unit   *string
	Meta   map[string]any
}

// ProductDescriptor is the structured form of a free-text goods query.
type ProductDescriptor struct {
	Name            string          `json:"name"`
	Material        string          `json:"material"`
	Function        string          `json:"function"`
	ProcessingLevel string          `json:"processing_level"`
	OriginCountry   string          `json:"origin_country"`
	DeclaredValue   decimal.Decimal `json:"declared_value"`
	Currency        string          `json:"currency,omitempty"`
}

type TariffEntry struct {
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Group         string             `json:"group"`
	Duties        map[string]float64 `json:"duties"`
	Certification []string           `json:"certification"`
	Restrictions  []string           `json:"restrictions"`
}

type ClassificationResult struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Confidence  float64  `json:"confidence"`
	DutyRate    string   `json:"duty_rate"`
	VATRate     string   `json:"vat_rate"`
	Documents   []string `json:"documents"`
	Reasoning   string   `json:"reasoning"`
	NeedsReview bool     `json:"needs_review"`
}

type CostLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type CostBreakdown struct {
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Quantity      int             `json:"quantity"`
	DutyRate      decimal.Decimal `json:"duty_rate"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	CustomsValue  decimal.Decimal `json:"customs_value"`
	DutyAmount    decimal.Decimal `json:"duty_amount"`
	VATBase       decimal.Decimal `json:"vat_base"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	CustomsFee    decimal.Decimal `json:"customs_fee"`
	BrokerFee     decimal.Decimal `json:"broker_fee"`
	TotalTaxes    decimal.Decimal `json:"total_taxes"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	LineItems     []CostLine      `json:"line_items"`
}

type QuoteStatus string

const (
	QuoteClassified    QuoteStatus = "CLASSIFIED"
	QuoteNotClassified QuoteStatus = "NOT_CLASSIFIED"
)

type LookupStatus string

const (
	LookupFound    LookupStatus = "FOUND"
	LookupNotFound LookupStatus = "NOT_FOUND"
)

type Candidate struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type QuoteExportRow struct {
	InputLineNo   int
	Source        string
	Query         string
	Qty           float64
	Status        string
	Code          string
	Description   string
	Category      string
	Origin        string
	DeclaredValue string
	DutyRate      string
	VATRate       string
	DutyAmount    string
	VATAmount     string
	TotalFees     string
	TotalCost     string
	NeedsReview   bool
	Documents     string
	Candidate     *string
	CandidateCode *string
}
