package opencage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
	"github.com/couchcryptid/restaurant-weather-etl/internal/observability"
)

const defaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// Client implements domain.Geocoder using the OpenCage Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[response]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenCage client. It returns domain.ErrMissingCredential
// when apiKey is empty. requestsPerSecond throttles outbound calls.
func NewClient(apiKey string, timeout time.Duration, requestsPerSecond float64, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingCredential
	}
	burst := max(int(requestsPerSecond), 1)
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		breaker:    newBreaker(),
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// newBreaker stops calling the API after repeated consecutive failures and
// probes again after a cool-down.
func newBreaker() *gobreaker.CircuitBreaker[response] {
	return gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "opencage",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Resolve looks up "city,country" and returns the first candidate.
func (c *Client) Resolve(ctx context.Context, city, country string) (domain.Resolution, error) {
	if c.apiKey == "" {
		return domain.Resolution{}, domain.ErrMissingCredential
	}

	params := url.Values{
		"q":              {city + "," + country},
		"key":            {c.apiKey},
		"limit":          {"1"},
		"no_annotations": {"1"},
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Resolution{}, fmt.Errorf("%w: rate limiter: %w", domain.ErrResolutionFailed, err)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (response, error) {
		return c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	})
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Debug("opencage circuit open", "city", city, "country", country)
		}
		return domain.Resolution{}, fmt.Errorf("%w: %w", domain.ErrResolutionFailed, err)
	}

	if len(resp.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("unresolved").Inc()
		return domain.Resolution{Status: domain.ResolutionUnresolved}, nil
	}

	g := resp.Results[0].Geometry
	c.metrics.GeocodeRequests.WithLabelValues("resolved").Inc()
	c.logger.Debug("opencage resolved",
		"city", city,
		"country", country,
		"lat", g.Lat,
		"lng", g.Lng,
		"confidence", resp.Results[0].Confidence,
	)
	return domain.Resolution{
		Status:      domain.ResolutionResolved,
		Coordinates: domain.Coordinates{Lat: g.Lat, Lng: g.Lng},
	}, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return response{}, fmt.Errorf("opencage API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// OpenCage API response types.

type response struct {
	Results []result `json:"results"`
	Status  status   `json:"status"`
}

type result struct {
	Geometry   geometry `json:"geometry"`
	Formatted  string   `json:"formatted"`
	Confidence int      `json:"confidence"`
}

type geometry struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
