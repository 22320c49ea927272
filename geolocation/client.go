package geolocation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/metrics"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Lookup outcomes reported to metrics.
const (
	ResultCacheHit = "cache_hit"
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultSkipped  = "skipped"
	ResultError    = "error"
)

var ErrUnexpectedStatus = errors.New("unexpected status from geolocation api")

type Config struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client resolves client IPs through an ipgeolocation-style HTTP API.
// Concurrent lookups of the same address share one outbound request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	cache   Cache
	limiter *rate.Limiter
	group   singleflight.Group
	metrics metrics.Recorder
	logger  *slog.Logger
}

func NewClient(cfg Config, cache Cache, recorder metrics.Recorder, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid geolocation base url %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		cache:   cache,
		limiter: limiter,
		metrics: recorder,
		logger:  logger,
	}, nil
}

// Locate returns nil, nil for addresses the API cannot place, including
// private and loopback ranges which are never sent upstream.
func (c *Client) Locate(ctx context.Context, ip string) (*geo.Point, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		c.metrics.RecordGeoLookup(ctx, ResultSkipped)
		return nil, nil
	}
	key := addr.Unmap().String()

	if c.cache != nil {
		if p, ok := c.cache.Get(key); ok {
			c.metrics.RecordGeoLookup(ctx, ResultCacheHit)
			return &p, nil
		}
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx, key)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		c.metrics.RecordGeoLookup(ctx, ResultError)
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		c.metrics.RecordGeoLookup(ctx, ResultError)
		return nil, res.Err
	}
	p, _ := res.Val.(*geo.Point)
	if p == nil {
		c.metrics.RecordGeoLookup(ctx, ResultNotFound)
		return nil, nil
	}
	if c.cache != nil {
		c.cache.Add(key, *p)
	}
	c.metrics.RecordGeoLookup(ctx, ResultFound)
	return p, nil
}

type ipgeoResponse struct {
	IP        string     `json:"ip"`
	Latitude  coordinate `json:"latitude"`
	Longitude coordinate `json:"longitude"`
}

// coordinate accepts both JSON numbers and numeric strings.
type coordinate struct {
	value float64
	set   bool
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", raw, err)
	}
	c.value, c.set = f, true
	return nil
}

func (c *Client) fetch(ctx context.Context, ip string) (*geo.Point, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geolocation rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("ip", ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ipgeo?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read geolocation response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusLocked:
		// Bogon or unknown address.
		c.logger.WarnContext(ctx, "geolocation api could not place address",
			slog.String("ip", ip),
			slog.Int("status", resp.StatusCode),
		)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ipgeoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	if !out.Latitude.set || !out.Longitude.set {
		c.logger.WarnContext(ctx, "no coordinates received", slog.String("ip", ip))
		return nil, nil
	}

	p := geo.Point{Lat: out.Latitude.value, Lng: out.Longitude.value}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("geolocation api returned %w", err)
	}
	return &p, nil
}
