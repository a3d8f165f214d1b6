package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/skyhawk-aero/wxbrief/internal/metrics"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// Fetcher retrieves the raw text of one weather product for a station.
// Implementations return the source's text exactly as received.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, station string) (string, error)
}

// ClientConfig holds the upstream source endpoints and HTTP behavior
type ClientConfig struct {
	AviationWeatherBaseURL string `toml:"aviationweather_base_url"`
	DATISBaseURL           string `toml:"datis_base_url"`
	MOSBaseURL             string `toml:"mos_base_url"`
	RunwaysCSVURL          string `toml:"runways_csv_url"`
	WindsAloftRegion       string `toml:"windsaloft_region"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
	MaxRetries             int    `toml:"max_retries"`
}

// DefaultClientConfig returns the default source endpoints
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		AviationWeatherBaseURL: "https://aviationweather.gov/api/data",
		DATISBaseURL:           "https://datis.clowd.io/api",
		MOSBaseURL:             "https://forecast.weather.gov/product.php?format=txt&glossary=0&issuedby=%s&product=MAV&site=NWS&version=1",
		RunwaysCSVURL:          "https://davidmegginson.github.io/ourairports-data/runways.csv",
		WindsAloftRegion:       "bos",
		RequestTimeoutSeconds:  10,
		MaxRetries:             2,
	}
}

// Client fetches raw weather products over HTTP
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a weather source client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		logger: log.Named("weather-client"),
	}
}

var stationRe = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)

// Fetch retrieves the raw product text for a (kind, station) pair
func (c *Client) Fetch(ctx context.Context, kind Kind, station string) (string, error) {
	station = strings.ToUpper(strings.TrimSpace(station))
	if !stationRe.MatchString(station) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStation, station)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown product kind %q", kind)
	}

	url := c.urlFor(kind, station)
	body, err := c.fetchWithRetry(ctx, url, kind, station)
	if err != nil {
		metrics.RecordFetch(string(kind), "error")
		return "", err
	}

	if kind == KindDATIS {
		body, err = extractDATIS(body)
		if err != nil {
			metrics.RecordFetch(string(kind), "no_data")
			return "", err
		}
	}

	if strings.TrimSpace(body) == "" {
		metrics.RecordFetch(string(kind), "no_data")
		return "", fmt.Errorf("%w: %s %s", ErrNoData, kind, station)
	}

	metrics.RecordFetch(string(kind), "ok")
	return body, nil
}

// urlFor builds the source URL for a product. Winds-aloft and runway CSV
// sources are region- and dataset-wide; the station is resolved after fetch.
func (c *Client) urlFor(kind Kind, station string) string {
	switch kind {
	case KindMETAR:
		return fmt.Sprintf("%s/metar?ids=%s&format=raw&taf=false", c.config.AviationWeatherBaseURL, station)
	case KindTAF:
		return fmt.Sprintf("%s/taf?ids=%s&format=raw", c.config.AviationWeatherBaseURL, station)
	case KindWindsAloft:
		return fmt.Sprintf("%s/windtemp?region=%s&level=low&fcst=06", c.config.AviationWeatherBaseURL, c.config.WindsAloftRegion)
	case KindDATIS:
		return fmt.Sprintf("%s/%s", c.config.DATISBaseURL, station)
	case KindMOS:
		return fmt.Sprintf(c.config.MOSBaseURL, station)
	case KindRunways:
		return c.config.RunwaysCSVURL
	}
	return ""
}

// fetchWithRetry performs the HTTP request with exponential backoff between
// attempts. Client errors from the source are not retried.
func (c *Client) fetchWithRetry(ctx context.Context, url string, kind Kind, station string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying weather data fetch",
				logger.String("kind", string(kind)),
				logger.String("station", station),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, ctx.Err())
			case <-time.After(backoffDuration):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			c.logger.Warn("Weather source request failed, may retry",
				logger.String("kind", string(kind)),
				logger.String("station", station),
				logger.Error(err),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return "", fmt.Errorf("%w: %s %s", ErrNoData, kind, station)
		case resp.StatusCode == http.StatusBadRequest:
			return "", fmt.Errorf("%w: %s", ErrInvalidStation, station)
		case resp.StatusCode != http.StatusOK:
			lastErr = fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
			c.logger.Warn("Weather source returned non-OK status, may retry",
				logger.String("kind", string(kind)),
				logger.String("station", station),
				logger.Int("status_code", resp.StatusCode),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		case readErr != nil:
			lastErr = fmt.Errorf("%w: %v", ErrSourceUnavailable, readErr)
			c.logger.Warn("Failed to read weather source response, may retry",
				logger.String("kind", string(kind)),
				logger.String("station", station),
				logger.Error(readErr),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		if attempt > 0 {
			c.logger.Info("Successfully fetched weather data after retries",
				logger.String("kind", string(kind)),
				logger.String("station", station),
				logger.Int("attempts_needed", attempt+1))
		}
		return string(body), nil
	}

	c.logger.Error("All attempts to fetch weather data failed",
		logger.String("kind", string(kind)),
		logger.String("station", station),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return "", lastErr
}

// datisResponse is the shape of the D-ATIS source's JSON
type datisResponse struct {
	Airport string `json:"airport"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Datis   string `json:"datis"`
}

// extractDATIS pulls the broadcast text out of the D-ATIS JSON payload.
// Split dep/arr broadcasts concatenate in source order.
func extractDATIS(body string) (string, error) {
	var entries []datisResponse
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return "", fmt.Errorf("%w: malformed D-ATIS response", ErrNoData)
	}
	var parts []string
	for _, e := range entries {
		if strings.TrimSpace(e.Datis) != "" {
			parts = append(parts, strings.TrimSpace(e.Datis))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty D-ATIS response", ErrNoData)
	}
	return strings.Join(parts, "\n\n"), nil
}
