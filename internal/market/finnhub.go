// Package market fetches quotes, symbol search results, news and company
// profiles from the Finnhub REST API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/apperr"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the Finnhub v1 API root
const DefaultBaseURL = "https://finnhub.io/api/v1"

// maxParallelQuotes bounds the GetQuotes fan-out
const maxParallelQuotes = 8

var (
	// ErrQuoteUnavailable means no usable quote could be obtained
	ErrQuoteUnavailable = apperr.New(apperr.TypeUnavailable, "QUOTE_UNAVAILABLE", "Quote unavailable")
	// ErrMarketUnavailable is returned when search, news or profile calls fail
	ErrMarketUnavailable = apperr.New(apperr.TypeUnavailable, "MARKET_DATA_UNAVAILABLE", "Market data unavailable")
)

// Client talks to Finnhub
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   QuoteCache
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithCache(qc QuoteCache) Option {
	return func(c *Client) { c.cache = qc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Finnhub client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   noopCache{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type finnhubQuote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	ChangePercent decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

// GetQuote returns the latest quote for symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.Quote{}, ErrQuoteUnavailable.WithDetails(map[string]interface{}{"reason": "symbol is required"})
	}

	if cached, err := c.cache.Get(ctx, symbol); err != nil {
		c.log.Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	} else if cached != nil {
		return *cached, nil
	}

	var raw finnhubQuote
	params := url.Values{"symbol": {FormatSymbol(symbol)}}
	if err := c.get(ctx, "/quote", params, &raw); err != nil {
		c.metrics.QuoteFailed("quote")
		c.log.Warn("Quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return models.Quote{}, ErrQuoteUnavailable.Wrap(err)
	}

	q := models.Quote{
		Symbol:        symbol,
		CurrentPrice:  raw.Current,
		Change:        raw.Change,
		ChangePercent: raw.ChangePercent,
		High:          raw.High,
		Low:           raw.Low,
		Open:          raw.Open,
		PreviousClose: raw.PreviousClose,
		Timestamp:     time.Now().UTC(),
		Source:        "finnhub",
	}
	if raw.Timestamp > 0 {
		q.Timestamp = time.Unix(raw.Timestamp, 0).UTC()
	}
	// Finnhub answers unknown symbols with an all-zero payload.
	if q.IsZero() {
		c.metrics.QuoteFailed("quote")
		return models.Quote{}, ErrQuoteUnavailable.WithDetails(map[string]interface{}{"symbol": symbol})
	}

	if err := c.cache.Set(ctx, q); err != nil {
		c.log.Warn("Quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return q, nil
}

// GetQuotes fetches quotes in parallel. Symbols without a usable quote are
// left out of the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) map[string]models.Quote {
	seen := make(map[string]bool, len(symbols))
	quotes := make(map[string]models.Quote, len(symbols))
	results := make(chan models.Quote, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQuotes)
	for _, s := range symbols {
		s = models.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		g.Go(func() error {
			q, err := c.GetQuote(gctx, s)
			if err != nil {
				return nil
			}
			results <- q
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for q := range results {
		quotes[q.Symbol] = q
	}
	return quotes
}

type finnhubSearch struct {
	Count  int                  `json:"count"`
	Result []models.SymbolMatch `json:"result"`
}

// SearchSymbols looks up symbols matching query
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SymbolMatch{}, nil
	}

	var raw finnhubSearch
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &raw); err != nil {
		c.metrics.QuoteFailed("search")
		c.log.Warn("Symbol search failed", zap.String("query", query), zap.Error(err))
		return nil, ErrMarketUnavailable.Wrap(err)
	}
	if raw.Result == nil {
		raw.Result = []models.SymbolMatch{}
	}
	return raw.Result, nil
}

type finnhubNews struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// MarketNews returns the latest headlines for category, "general" if empty
func (c *Client) MarketNews(ctx context.Context, category string) ([]models.NewsItem, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "general"
	}

	var raw []finnhubNews
	if err := c.get(ctx, "/news", url.Values{"category": {category}}, &raw); err != nil {
		c.metrics.QuoteFailed("news")
		c.log.Warn("Market news fetch failed", zap.String("category", category), zap.Error(err))
		return nil, ErrMarketUnavailable.Wrap(err)
	}

	news := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		news = append(news, models.NewsItem{
			ID:       n.ID,
			Headline: n.Headline,
			Summary:  n.Summary,
			Source:   n.Source,
			URL:      n.URL,
			Image:    n.Image,
			Category: n.Category,
			Datetime: time.Unix(n.Datetime, 0).UTC(),
		})
	}
	return news, nil
}

type finnhubProfile struct {
	Country           string          `json:"country"`
	Currency          string          `json:"currency"`
	Exchange          string          `json:"exchange"`
	Industry          string          `json:"finnhubIndustry"`
	IPO               string          `json:"ipo"`
	Logo              string          `json:"logo"`
	MarketCap         decimal.Decimal `json:"marketCapitalization"`
	Name              string          `json:"name"`
	SharesOutstanding decimal.Decimal `json:"shareOutstanding"`
	Ticker            string          `json:"ticker"`
	WebURL            string          `json:"weburl"`
}

// CompanyProfile returns the issuer profile for symbol, or nil when Finnhub
// has none.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}

	var raw finnhubProfile
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {FormatSymbol(symbol)}}, &raw); err != nil {
		c.metrics.QuoteFailed("profile")
		c.log.Warn("Company profile fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, ErrMarketUnavailable.Wrap(err)
	}
	if raw.Ticker == "" && raw.Name == "" {
		return nil, nil
	}

	return &models.CompanyProfile{
		Ticker:            raw.Ticker,
		Name:              raw.Name,
		Country:           raw.Country,
		Currency:          raw.Currency,
		Exchange:          raw.Exchange,
		Industry:          raw.Industry,
		IPO:               raw.IPO,
		Logo:              raw.Logo,
		WebURL:            raw.WebURL,
		MarketCap:         raw.MarketCap,
		SharesOutstanding: raw.SharesOutstanding,
	}, nil
}

// get performs a GET against path and decodes the JSON body into data
func (c *Client) get(ctx context.Context, path string, params url.Values, data interface{}) error {
	params.Set("token", c.apiKey)
	addr := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL carries the API token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("cannot http GET %v: %w", path, uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v: %v", path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
