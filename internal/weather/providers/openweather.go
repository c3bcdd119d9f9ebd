package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg *config.AppConfig) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: cfg.OpenWeatherBaseURL,
		units:   cfg.Units,
		client:  client,
		circuit: newCircuitBreaker("openweather", cfg.BreakerMaxFailures),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch requests current weather for a city. Every failure to get a 2xx
// response is returned as a *RequestError.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	if p.units != "" {
		values.Set("units", p.units)
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.Observation{}, p.requestError(city, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.Observation{}, p.requestError(city, err)
	}
	defer resp.Body.Close()

	var obs weather.Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		return weather.Observation{}, fmt.Errorf("decode %s response for %q: %w", p.name, city, err)
	}

	return obs, nil
}

func (p *OpenWeatherProvider) requestError(city string, err error) *RequestError {
	reqErr := &RequestError{Provider: p.name, City: city, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		reqErr.StatusCode = se.StatusCode
	}
	return reqErr
}
