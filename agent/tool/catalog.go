package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"
)

const maxResponseSizeBytes = 2 << 20

type Config struct {
	NominatimBaseURL     string        `envconfig:"NOMINATIM_BASE_URL" split_words:"true" default:"https://nominatim.openstreetmap.org"`
	OpenMeteoBaseURL     string        `envconfig:"OPEN_METEO_BASE_URL" split_words:"true" default:"https://api.open-meteo.com"`
	RestCountriesBaseURL string        `envconfig:"REST_COUNTRIES_BASE_URL" split_words:"true" default:"https://restcountries.com"`
	FrankfurterBaseURL   string        `envconfig:"FRANKFURTER_BASE_URL" split_words:"true" default:"https://api.frankfurter.app"`
	NagerBaseURL         string        `envconfig:"NAGER_BASE_URL" split_words:"true" default:"https://date.nager.at"`
	Timeout              time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Catalog bundles the free travel data APIs behind one HTTP client. Every
// tool returns plain text and never an error: upstream failures become
// fallback sentences the model can relay.
type Catalog struct {
	cfg    Config
	client *http.Client
}

func NewCatalog(cfg Config) *Catalog {
	cfg.NominatimBaseURL = normalizeBaseURL(cfg.NominatimBaseURL, "https://nominatim.openstreetmap.org")
	cfg.OpenMeteoBaseURL = normalizeBaseURL(cfg.OpenMeteoBaseURL, "https://api.open-meteo.com")
	cfg.RestCountriesBaseURL = normalizeBaseURL(cfg.RestCountriesBaseURL, "https://restcountries.com")
	cfg.FrankfurterBaseURL = normalizeBaseURL(cfg.FrankfurterBaseURL, "https://api.frankfurter.app")
	cfg.NagerBaseURL = normalizeBaseURL(cfg.NagerBaseURL, "https://date.nager.at")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Catalog{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Tools returns every travel tool for agent registration.
func (c *Catalog) Tools() []einotool.BaseTool {
	return []einotool.BaseTool{
		&weatherTool{catalog: c},
		&countryTool{catalog: c},
		&exchangeTool{catalog: c},
		&holidaysTool{catalog: c},
	}
}

func normalizeBaseURL(raw, fallback string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// statusError separates HTTP status failures from transport failures so each
// tool can phrase its fallback.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.code)
}

func (c *Catalog) getJSON(ctx context.Context, rawURL string, query url.Values, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &statusError{code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// num renders a JSON number the way it arrived, without forcing a precision.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
