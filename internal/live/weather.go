package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCity is used when no place phrase can be extracted.
const DefaultCity = "Manama"

// WeatherResolver answers weather utterances natively via geocode + forecast.
type WeatherResolver struct {
	geocodeURL  string
	forecastURL string
	client      *http.Client
}

func NewWeatherResolver() *WeatherResolver {
	return &WeatherResolver{
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		client:      &http.Client{Timeout: 8 * time.Second},
	}
}

// SetEndpoints overrides the provider endpoints (tests).
func (r *WeatherResolver) SetEndpoints(geocode, forecast string) {
	r.geocodeURL = geocode
	r.forecastURL = forecast
}

// Resolve always returns a displayable sentence: a composed weather report,
// or an explicit failure sentence when geocoding or forecast data is missing.
func (r *WeatherResolver) Resolve(ctx context.Context, utterance string) string {
	city := ExtractPlace(utterance, "weather in", "forecast in")
	if city == "" {
		city = DefaultCity
	}

	lat, lon, name, country, ok := r.geocode(ctx, city)
	if !ok {
		return "Sorry—I couldn’t resolve that location."
	}

	cur, err := r.forecast(ctx, lat, lon)
	if err != nil {
		log.Printf("[LIVE] weather warn: %v", err)
		return "Sorry—I couldn’t fetch the weather right now."
	}

	loc := name
	if loc == "" {
		loc = titleCase(city)
	}
	if country != "" {
		loc = fmt.Sprintf("%s, %s", name, country)
	}

	var parts []string
	if cur.Temperature != nil {
		parts = append(parts, fmt.Sprintf("**%v°C**", *cur.Temperature))
	}
	if cur.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%v%% RH", *cur.Humidity))
	}
	if cur.Wind != nil {
		parts = append(parts, fmt.Sprintf("%v m/s wind", *cur.Wind))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Weather for %s: data unavailable.", loc)
	}
	return fmt.Sprintf("Weather now in %s: %s.", loc, strings.Join(parts, ", "))
}

func (r *WeatherResolver) geocode(ctx context.Context, city string) (lat, lon float64, name, country string, ok bool) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	body, err := r.get(ctx, r.geocodeURL+"?"+q.Encode())
	if err != nil {
		log.Printf("[LIVE] geocode warn: %v", err)
		return 0, 0, "", "", false
	}
	var parsed struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Name      string  `json:"name"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Results) == 0 {
		return 0, 0, "", "", false
	}
	first := parsed.Results[0]
	return first.Latitude, first.Longitude, first.Name, first.Country, true
}

type currentWeather struct {
	Temperature *float64 `json:"temperature_2m"`
	Wind        *float64 `json:"wind_speed_10m"`
	Humidity    *float64 `json:"relative_humidity_2m"`
}

func (r *WeatherResolver) forecast(ctx context.Context, lat, lon float64) (*currentWeather, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%v", lat))
	q.Set("longitude", fmt.Sprintf("%v", lon))
	q.Set("current", "temperature_2m,wind_speed_10m,relative_humidity_2m")
	body, err := r.get(ctx, r.forecastURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Current currentWeather `json:"current"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &parsed.Current, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (r *WeatherResolver) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
