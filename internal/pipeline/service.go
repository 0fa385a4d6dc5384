package pipeline

import (
	"strings"

	"vedexpert/internal"
	"vedexpert/internal/cache"
	"vedexpert/internal/catalog"
	"vedexpert/internal/classifier"
	"vedexpert/internal/cost"
	"vedexpert/internal/query"
	"vedexpert/internal/util"
)

// Quote is the outcome of one classify-and-price request.
type Quote struct {
	Status         internal.QuoteStatus           `json:"status"`
	Query          string                         `json:"query,omitempty"`
	Descriptor     *internal.ProductDescriptor    `json:"descriptor,omitempty"`
	Classification *internal.ClassificationResult `json:"classification,omitempty"`
	Cost           *internal.CostBreakdown        `json:"cost,omitempty"`
	CatalogEntry   *internal.TariffEntry          `json:"catalog_entry,omitempty"`
	Candidates     []internal.Candidate           `json:"candidates,omitempty"`
	FromCache      bool                           `json:"from_cache"`
	Message        string                         `json:"message,omitempty"`
}

type LookupResult struct {
	Status  internal.LookupStatus  `json:"status"`
	Query   string                 `json:"query"`
	Entry   *internal.TariffEntry  `json:"entry,omitempty"`
	Matches []internal.TariffEntry `json:"matches,omitempty"`
}

// Service owns the classification pipeline. All parts are injected.
type Service struct {
	catalog    *catalog.Catalog
	interp     *query.Interpreter
	classifier *classifier.Classifier
	cache      *cache.ResultCache
	calc       *cost.Calculator
	stats      *statsTracker
}

func NewService(cat *catalog.Catalog, interp *query.Interpreter, cls *classifier.Classifier, rc *cache.ResultCache, calc *cost.Calculator) *Service {
	if cat == nil {
		cat = catalog.NewFromEntries(nil)
	}
	if interp == nil {
		interp = query.NewInterpreter(query.DefaultCountry, query.DefaultValue)
	}
	if cls == nil {
		cls = classifier.New()
	}
	if rc == nil {
		rc = cache.New(cache.DefaultTTL)
	}
	if calc == nil {
		calc = cost.NewCalculator()
	}
	return &Service{catalog: cat, interp: interp, classifier: cls, cache: rc, calc: calc, stats: newStatsTracker()}
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) Cache() *cache.ResultCache { return s.cache }

// ClassifyAndPrice interprets free text and prices the result. Text the
// interpreter cannot read returns NOT_CLASSIFIED with catalog candidates.
func (s *Service) ClassifyAndPrice(text string, quantity int) Quote {
	text = strings.TrimSpace(text)
	d, ok := s.interp.Parse(text)
	if !ok {
		s.stats.recordQuery("")
		q := Quote{
			Status:     internal.QuoteNotClassified,
			Query:      text,
			Candidates: s.rankCandidates(text),
			Message:    "Не удалось определить товар по описанию",
		}
		if len(q.Candidates) == 0 {
			q.Message += ", похожие позиции в справочнике не найдены"
		}
		return q
	}
	q := s.classifyDescriptor(d, quantity)
	q.Query = text
	return q
}

// ClassifyDescriptor prices an already structured descriptor.
func (s *Service) ClassifyDescriptor(d internal.ProductDescriptor, quantity int) Quote {
	if strings.TrimSpace(d.OriginCountry) == "" {
		d.OriginCountry = query.DefaultCountry
	}
	d.OriginCountry = strings.ToUpper(strings.TrimSpace(d.OriginCountry))
	return s.classifyDescriptor(d, quantity)
}

func (s *Service) classifyDescriptor(d internal.ProductDescriptor, quantity int) Quote {
	res, hit := s.cache.Get(d)
	if !hit {
		res = s.classifier.Classify(d)
		s.cache.Set(d, res)
	}
	s.stats.recordQuery(res.Code)

	breakdown := s.calc.Compute(res, d.DeclaredValue, quantity)
	q := Quote{
		Status:         internal.QuoteClassified,
		Descriptor:     &d,
		Classification: &res,
		Cost:           &breakdown,
		FromCache:      hit,
	}
	if entry, ok := s.catalog.FindByCode(res.Code); ok && entry.Code == res.Code {
		q.CatalogEntry = &entry
	}
	if res.NeedsReview {
		q.Message = "Требуется проверка эксперта"
	}
	return q
}

// Lookup resolves a tariff code or, failing that, a name search.
func (s *Service) Lookup(codeOrName string) LookupResult {
	q := strings.TrimSpace(codeOrName)
	s.stats.recordLookup()
	out := LookupResult{Status: internal.LookupNotFound, Query: q}
	if q == "" {
		return out
	}
	if util.LooksLikeTariffCode(q) {
		if entry, ok := s.catalog.FindByCode(q); ok {
			out.Status = internal.LookupFound
			out.Entry = &entry
		}
		return out
	}
	matches := s.catalog.SearchByName(q, catalog.DefaultSearchLimit)
	if len(matches) > 0 {
		out.Status = internal.LookupFound
		out.Entry = &matches[0]
		out.Matches = matches
	}
	return out
}

func (s *Service) Validate(d internal.ProductDescriptor, suggestedCode string) classifier.Validation {
	return s.classifier.Validate(d, suggestedCode)
}

// ClearCache drops cached classifications and their counters.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

func (s *Service) Stats() Stats {
	return s.stats.snapshot(s.cache.Stats())
}
