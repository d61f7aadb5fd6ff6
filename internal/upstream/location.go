package upstream

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tabhome/tabhome/internal/config"
	"github.com/tidwall/gjson"
)

// Location is the approximate position of a client.
// Lat and Lon are only set for successful lookups.
type Location struct {
	City    string   `json:"city"`
	Region  string   `json:"region"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// LocationClient queries ip-api.com.
type LocationClient struct {
	caller   *caller
	baseURL  string
	fallback Location
}

func NewLocationClient(cfg *config.LocationConfig, timeout time.Duration, bc *config.BreakerConfig) *LocationClient {
	return &LocationClient{
		caller:  newCaller("location", timeout, bc),
		baseURL: cfg.URL,
		fallback: Location{
			City:    cfg.FallbackCity,
			Region:  cfg.FallbackRegion,
			Country: cfg.FallbackCountry,
		},
	}
}

// Lookup resolves ip to a location. Loopback addresses let the service detect
// the public address itself. Any failure yields the fallback location.
func (l *LocationClient) Lookup(ctx context.Context, ip string) Location {
	reqURL := l.baseURL + "/json/?lang=zh-CN"
	if !isLocal(ip) {
		reqURL = l.baseURL + "/json/" + url.PathEscape(ip) + "?lang=zh-CN"
	}

	body, err := l.caller.get(ctx, reqURL, nil)
	if err != nil || !gjson.ValidBytes(body) {
		return l.fallback
	}

	data := gjson.ParseBytes(body)
	if data.Get("status").String() != "success" {
		l.caller.log.Debug("lookup was not successful", "ip", ip, "message", data.Get("message").String())
		return l.fallback
	}

	loc := Location{
		City:    data.Get("city").String(),
		Region:  data.Get("regionName").String(),
		Country: data.Get("country").String(),
	}
	if v := data.Get("lat"); v.Exists() {
		lat := v.Float()
		loc.Lat = &lat
	}
	if v := data.Get("lon"); v.Exists() {
		lon := v.Float()
		loc.Lon = &lon
	}
	return loc
}

// ClientIP returns the first X-Forwarded-For entry, or the host of remoteAddr.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}

func isLocal(ip string) bool {
	if ip == "" || strings.EqualFold(ip, "localhost") {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
