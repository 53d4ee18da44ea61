package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	pkgerrors "github.com/pkg/errors"

	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

const (
	// DefaultBaseURL serves open.er-api.com latest-rate documents
	DefaultBaseURL = "https://open.er-api.com/v6/latest"
	// DefaultFallbackRate is the USD to CNY rate used when the lookup fails
	DefaultFallbackRate = 7.1
)

// Source tells where a resolved rate came from
type Source string

const (
	SourceFixed    Source = "fixed"
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

// Quote is a resolved exchange rate
type Quote struct {
	Base   string
	Target string
	Rate   float64
	Source Source
}

type latestResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// Client fetches exchange rates and falls back to a fixed rate on failure
type Client struct {
	http     *httpClient
	logger   ectologger.Logger
	baseURL  string
	fallback float64
}

// NewClient creates a rate client. An empty baseURL uses DefaultBaseURL and a
// non-positive fallback uses DefaultFallbackRate.
func NewClient(cfg Config, logger ectologger.Logger, baseURL string, fallback float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !(fallback > 0) {
		fallback = DefaultFallbackRate
	}
	return &Client{
		http:     newHTTPClient(cfg, logger),
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		fallback: fallback,
	}
}

// Fetch returns the current base to target rate from the API
func (c *Client) Fetch(ctx context.Context, base, target string) (float64, error) {
	ctx, span := tracing.StartSpan(ctx, "exchange.Client.Fetch")
	defer span.End()

	base, target = strings.ToUpper(base), strings.ToUpper(target)
	status, body, err := c.http.get(ctx, c.baseURL+"/"+base)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}
	if status != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", status)
		tracing.RecordError(span, err)
		return 0, err
	}

	var doc latestResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to decode rate response")
	}
	if doc.Result != "" && doc.Result != "success" {
		return 0, fmt.Errorf("rate lookup returned result %q", doc.Result)
	}

	rate, ok := doc.Rates[target]
	if !ok {
		return 0, fmt.Errorf("no %s rate in response for base %s", target, base)
	}
	if !(rate > 0) {
		return 0, fmt.Errorf("invalid %s rate %v", target, rate)
	}
	return rate, nil
}

// Resolve returns the rate to use for a run. It never fails: lookup errors are logged
// and the fallback rate is returned.
func (c *Client) Resolve(ctx context.Context, base, target string) Quote {
	quote := Quote{Base: strings.ToUpper(base), Target: strings.ToUpper(target)}

	rate, err := c.Fetch(ctx, base, target)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"base":     quote.Base,
			"target":   quote.Target,
			"fallback": c.fallback,
		}).Warn("Exchange rate lookup failed; using fallback rate")
		quote.Rate = c.fallback
		quote.Source = SourceFallback
		return quote
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"base":   quote.Base,
		"target": quote.Target,
		"rate":   rate,
	}).Info("Fetched exchange rate")
	quote.Rate = rate
	quote.Source = SourceAPI
	return quote
}

// FixedRate is a rate given on the command line
type FixedRate float64

// Resolve returns the fixed rate without a lookup
func (r FixedRate) Resolve(_ context.Context, base, target string) Quote {
	return Quote{Base: strings.ToUpper(base), Target: strings.ToUpper(target), Rate: float64(r), Source: SourceFixed}
}
