package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabhome/tabhome/internal/config"
	"github.com/tidwall/gjson"
)

var (
	// ErrCityRequired is returned for an empty city.
	ErrCityRequired = errors.New("city is required")
	// ErrWeatherUnavailable is returned when wttr.in answers with a non-2xx status.
	ErrWeatherUnavailable = errors.New("weather service unavailable")
)

const (
	missingValue   = "--"
	unknownWeather = "未知"
)

// WeatherReport holds the current conditions of a city. All values are passed through as text.
type WeatherReport struct {
	City        string `json:"city"`
	Temp        string `json:"temp"`
	FeelsLike   string `json:"feels_like"`
	Humidity    string `json:"humidity"`
	WeatherDesc string `json:"weather_desc"`
	WeatherCode string `json:"weather_code"`
	WindSpeed   string `json:"wind_speed"`
	WindDir     string `json:"wind_dir"`
	UVIndex     string `json:"uv_index"`
	Visibility  string `json:"visibility"`
	Pressure    string `json:"pressure"`
}

// WeatherClient queries wttr.in.
type WeatherClient struct {
	caller  *caller
	baseURL string
}

func NewWeatherClient(cfg *config.WeatherConfig, timeout time.Duration, bc *config.BreakerConfig) *WeatherClient {
	return &WeatherClient{
		caller:  newCaller("weather", timeout, bc),
		baseURL: cfg.URL,
	}
}

// Fetch returns the current weather of city.
// Unlike the other clients it reports failures, since the caller shows them to the user.
func (w *WeatherClient) Fetch(ctx context.Context, city string) (*WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrCityRequired
	}

	reqURL := fmt.Sprintf("%s/%s?format=j1&lang=zh", w.baseURL, url.PathEscape(city))
	header := http.Header{}
	header.Set("Accept-Language", "zh-CN")

	body, err := w.caller.get(ctx, reqURL, header)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: status %d", ErrWeatherUnavailable, se.Code)
		}
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid weather response for %q", city)
	}
	return parseWeather(city, gjson.GetBytes(body, "current_condition.0")), nil
}

func parseWeather(city string, current gjson.Result) *WeatherReport {
	return &WeatherReport{
		City:        city,
		Temp:        stringOr(current, "temp_C", missingValue),
		FeelsLike:   stringOr(current, "FeelsLikeC", missingValue),
		Humidity:    stringOr(current, "humidity", missingValue),
		WeatherDesc: weatherDescription(current),
		WeatherCode: stringOr(current, "weatherCode", ""),
		WindSpeed:   stringOr(current, "windspeedKmph", missingValue),
		WindDir:     stringOr(current, "winddir16Point", ""),
		UVIndex:     stringOr(current, "uvIndex", missingValue),
		Visibility:  stringOr(current, "visibility", missingValue),
		Pressure:    stringOr(current, "pressure", missingValue),
	}
}

// weatherDescription prefers the Chinese text over the English one.
func weatherDescription(current gjson.Result) string {
	for _, path := range []string{"lang_zh.0.value", "weatherDesc.0.value"} {
		if v := current.Get(path); v.Exists() {
			return v.String()
		}
	}
	return unknownWeather
}

func stringOr(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if !v.Exists() {
		return def
	}
	return v.String()
}
