package providers

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

	"github.com/i474232898/whats-the-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// maxPayloadBytes bounds a single response body.
const maxPayloadBytes = 8 << 20

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap city ids.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string, backoff BackoffConfig) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || !breakerFailure(err)
		},
	})

	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// endpoint returns the URL of the current conditions or forecast resource.
func (p *OpenWeatherProvider) endpoint(kind weather.Kind) string {
	if kind == weather.KindForecast {
		return p.baseURL + "/forecast"
	}
	return p.baseURL + "/weather"
}

// Fetch requests the document for cityID and returns it verbatim once it is
// known to be a JSON object.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, kind weather.Kind, cityID int64) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	newRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("id", strconv.FormatInt(cityID, 10))
		values.Set("APPID", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.endpoint(kind), values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := getDocument(ctx, p.httpCfg, p.circuit, newRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", kind, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	if probe == nil {
		return nil, fmt.Errorf("decode %s response: not a JSON object", kind)
	}

	return json.RawMessage(body), nil
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)
