package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vedexpert/internal"
	"vedexpert/internal/catalog"
	"vedexpert/internal/logging"
	"vedexpert/internal/pipeline"
	"vedexpert/internal/util"
)

const (
	defaultSampleSize = 5
	maxSampleSize     = 50
	maxSearchLimit    = 100
	maxQuantity       = 1_000_000

	errNegativeValue = "value must not be negative"
)

type classifyRequest struct {
	Text     string `json:"text" binding:"required"`
	Quantity int    `json:"quantity"`
	Advice   bool   `json:"advice"`
}

type descriptorRequest struct {
	Name          string          `json:"name" binding:"required"`
	Material      string          `json:"material"`
	Function      string          `json:"function"`
	Processing    string          `json:"processing_level"`
	OriginCountry string          `json:"origin_country"`
	Value         decimal.Decimal `json:"value"`
	Currency      string          `json:"currency"`
	Quantity      int             `json:"quantity"`
	Advice        bool            `json:"advice"`
}

func (r descriptorRequest) descriptor() internal.ProductDescriptor {
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = "RUB"
	}
	return internal.ProductDescriptor{
		Name:            strings.TrimSpace(r.Name),
		Material:        r.Material,
		Function:        r.Function,
		ProcessingLevel: r.Processing,
		OriginCountry:   r.OriginCountry,
		DeclaredValue:   decimal.Max(r.Value, decimal.Zero),
		Currency:        currency,
	}
}

type validateRequest struct {
	Descriptor    descriptorRequest `json:"descriptor"`
	SuggestedCode string            `json:"suggested_code" binding:"required"`
}

type quoteResponse struct {
	RequestID string `json:"request_id"`
	pipeline.Quote
	Advice string `json:"advice,omitempty"`
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if q > maxQuantity {
		return maxQuantity
	}
	return q
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "catalog_entries": s.catalog().Len()})
}

func (s *Server) classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		abortWithError(c, http.StatusBadRequest, "text is required")
		return
	}

	q := s.svc.ClassifyAndPrice(req.Text, clampQuantity(req.Quantity))
	s.respondQuote(c, q, req.Advice)
}

func (s *Server) classifyDescriptor(c *gin.Context) {
	var req descriptorRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		abortWithError(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.Value.IsNegative() {
		abortWithError(c, http.StatusBadRequest, errNegativeValue)
		return
	}

	q := s.svc.ClassifyDescriptor(req.descriptor(), clampQuantity(req.Quantity))
	s.respondQuote(c, q, req.Advice)
}

func (s *Server) respondQuote(c *gin.Context, q pipeline.Quote, withAdvice bool) {
	resp := quoteResponse{RequestID: requestIDFrom(c), Quote: q}
	if withAdvice && s.advisor.Enabled() {
		resp.Advice = s.advisor.Advise(c.Request.Context(), q)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "descriptor and suggested_code are required")
		return
	}
	if req.Descriptor.Value.IsNegative() {
		abortWithError(c, http.StatusBadRequest, errNegativeValue)
		return
	}
	d := req.Descriptor.descriptor()
	if strings.TrimSpace(d.OriginCountry) == "" {
		d.OriginCountry = "CN"
	}
	c.JSON(http.StatusOK, s.svc.Validate(d, req.SuggestedCode))
}

func (s *Server) lookupCode(c *gin.Context) {
	code := util.NormalizeCode(c.Param("code"))
	if code == "" {
		abortWithError(c, http.StatusBadRequest, "code must contain digits")
		return
	}
	res := s.svc.Lookup(code)
	if res.Status != internal.LookupFound {
		abortWithError(c, http.StatusNotFound, "code not found: "+code)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len([]rune(q)) < 2 {
		abortWithError(c, http.StatusBadRequest, "q must be at least 2 characters")
		return
	}
	limit := queryInt(c, "limit", catalog.DefaultSearchLimit)
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	results := s.catalog().SearchByName(q, limit)
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(results), "results": results})
}

func (s *Server) group(c *gin.Context) {
	g := c.Param("group")
	results := s.catalog().GetByGroup(g)
	c.JSON(http.StatusOK, gin.H{"group": g, "count": len(results), "results": nonNil(results)})
}

func (s *Server) sample(c *gin.Context) {
	n := queryInt(c, "n", defaultSampleSize)
	if n > maxSampleSize {
		n = maxSampleSize
	}
	results := s.catalog().RandomSample(n)
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": nonNil(results)})
}

func (s *Server) catalogStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog().Statistics())
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Stats())
}

func (s *Server) reload(c *gin.Context) {
	n, err := s.catalog().Reload(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusBadGateway, err.Error())
		return
	}
	s.svc.ClearCache()
	c.JSON(http.StatusOK, gin.H{"entries": n})
}

func (s *Server) clearCache(c *gin.Context) {
	s.svc.ClearCache()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

type logLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

func (s *Server) setLogLevel(c *gin.Context) {
	var req logLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "level is required")
		return
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(req.Level))); err != nil {
		abortWithError(c, http.StatusBadRequest, "unknown level: "+req.Level)
		return
	}
	logging.SetLevel(level)
	slog.Info("log level changed", "level", level, "request_id", requestIDFrom(c))
	c.JSON(http.StatusOK, gin.H{"level": logging.Level().String()})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func nonNil(entries []internal.TariffEntry) []internal.TariffEntry {
	if entries == nil {
		return []internal.TariffEntry{}
	}
	return entries
}
