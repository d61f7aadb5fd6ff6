package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabhome/tabhome/internal/config"
)

const testTimeout = 2 * time.Second

func TestWallpaperFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/HPImageArchive.aspx", r.URL.Path)
		assert.Equal(t, "js", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("n"))
		assert.Equal(t, "zh-CN", r.URL.Query().Get("mkt"))
		fmt.Fprint(w, `{"images":[{"url":"/th?id=OHR.Test_1920x1080.jpg","copyright":"Great Wall (© Someone)"}]}`)
	}))
	defer server.Close()

	client := NewWallpaperClient(&config.WallpaperConfig{URL: server.URL, Market: "zh-CN"}, testTimeout, nil)
	wp := client.Fetch(context.Background())
	assert.Equal(t, server.URL+"/th?id=OHR.Test_1920x1080.jpg", wp.URL)
	assert.Equal(t, "Great Wall (© Someone)", wp.Copyright)
}

func TestWallpaperFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"no images", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"images":[]}`) }},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `<html>`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewWallpaperClient(&config.WallpaperConfig{URL: server.URL, Market: "zh-CN"}, testTimeout, nil)
			assert.Equal(t, Wallpaper{}, client.Fetch(context.Background()))
		})
	}
}

func TestWeatherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Beijing", r.URL.Path)
		assert.Equal(t, "j1", r.URL.Query().Get("format"))
		assert.Equal(t, "zh", r.URL.Query().Get("lang"))
		assert.Equal(t, "zh-CN", r.Header.Get("Accept-Language"))
		fmt.Fprint(w, `{"current_condition":[{
			"temp_C":"21","FeelsLikeC":"20","humidity":"40",
			"lang_zh":[{"value":"晴"}],"weatherDesc":[{"value":"Sunny"}],
			"weatherCode":"113","windspeedKmph":"11","winddir16Point":"NW",
			"uvIndex":"5","visibility":"10","pressure":"1015"}]}`)
	}))
	defer server.Close()

	client := NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, nil)
	report, err := client.Fetch(context.Background(), " Beijing ")
	require.NoError(t, err)
	assert.Equal(t, &WeatherReport{
		City:        "Beijing",
		Temp:        "21",
		FeelsLike:   "20",
		Humidity:    "40",
		WeatherDesc: "晴",
		WeatherCode: "113",
		WindSpeed:   "11",
		WindDir:     "NW",
		UVIndex:     "5",
		Visibility:  "10",
		Pressure:    "1015",
	}, report)
}

func TestWeatherDescriptionFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"english fallback", `{"current_condition":[{"weatherDesc":[{"value":"Sunny"}]}]}`, "Sunny"},
		{"unknown", `{"current_condition":[{}]}`, "未知"},
		{"no current condition", `{}`, "未知"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, nil)
			report, err := client.Fetch(context.Background(), "Paris")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, report.WeatherDesc)
		})
	}
}

func TestWeatherMissingFieldsUseDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"current_condition":[{"temp_C":"3"}]}`)
	}))
	defer server.Close()

	client := NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, nil)
	report, err := client.Fetch(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, "3", report.Temp)
	assert.Equal(t, "--", report.FeelsLike)
	assert.Equal(t, "--", report.Pressure)
	assert.Equal(t, "", report.WeatherCode)
	assert.Equal(t, "", report.WindDir)
}

func TestWeatherEscapesCity(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		assert.Equal(t, "j1", r.URL.Query().Get("format"))
		assert.Empty(t, r.URL.Query().Get("inject"))
		fmt.Fprint(w, `{"current_condition":[{}]}`)
	}))
	defer server.Close()

	client := NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, nil)
	_, err := client.Fetch(context.Background(), "北京 朝阳")
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), "x?inject=1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/北京 朝阳", "/x?inject=1"}, paths)
}

func TestWeatherErrors(t *testing.T) {
	client := NewWeatherClient(&config.WeatherConfig{URL: "http://127.0.0.1:1"}, testTimeout, nil)
	_, err := client.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrCityRequired)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client = NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, nil)
	_, err = client.Fetch(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrWeatherUnavailable)

	server.Close()
	_, err = client.Fetch(context.Background(), "Atlantis")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrWeatherUnavailable)
}

func testLocationConfig(url string) *config.LocationConfig {
	return &config.LocationConfig{
		URL:             url,
		FallbackCity:    "北京",
		FallbackRegion:  "北京",
		FallbackCountry: "中国",
	}
}

var fallbackLocation = Location{City: "北京", Region: "北京", Country: "中国"}

func TestLocationLookup(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		assert.Equal(t, "zh-CN", r.URL.Query().Get("lang"))
		fmt.Fprint(w, `{"status":"success","city":"上海","regionName":"上海市","country":"中国","lat":31.2,"lon":121.5}`)
	}))
	defer server.Close()

	client := NewLocationClient(testLocationConfig(server.URL), testTimeout, nil)

	loc := client.Lookup(context.Background(), "203.0.113.7")
	assert.Equal(t, "上海", loc.City)
	assert.Equal(t, "上海市", loc.Region)
	assert.Equal(t, "中国", loc.Country)
	require.NotNil(t, loc.Lat)
	require.NotNil(t, loc.Lon)
	assert.InDelta(t, 31.2, *loc.Lat, 0.001)
	assert.InDelta(t, 121.5, *loc.Lon, 0.001)

	for _, ip := range []string{"127.0.0.1", "::1", "localhost", ""} {
		client.Lookup(context.Background(), ip)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/json/203.0.113.7", "/json/", "/json/", "/json/", "/json/"}, paths)
}

func TestLocationFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status fail", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"fail","message":"private range"}`)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `nope`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewLocationClient(testLocationConfig(server.URL), testTimeout, nil)
			for _, ip := range []string{"203.0.113.7", "127.0.0.1"} {
				assert.Equal(t, fallbackLocation, client.Lookup(context.Background(), ip))
			}
		})
	}

	client := NewLocationClient(testLocationConfig("http://127.0.0.1:1"), testTimeout, nil)
	assert.Equal(t, fallbackLocation, client.Lookup(context.Background(), "198.51.100.1"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{"remote addr", "", "203.0.113.7:5123", "203.0.113.7"},
		{"ipv6 remote addr", "", "[::1]:5123", "::1"},
		{"forwarded single", "198.51.100.1", "127.0.0.1:80", "198.51.100.1"},
		{"forwarded chain", " 198.51.100.1 , 10.0.0.1", "127.0.0.1:80", "198.51.100.1"},
		{"remote without port", "", "203.0.113.7", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClientIP(tt.forwarded, tt.remoteAddr))
		})
	}
}

func newSuggestServers(t *testing.T, calls *atomic.Int32) (*httptest.Server, *config.SuggestConfig) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/google", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "firefox", r.URL.Query().Get("client"))
		q := r.URL.Query().Get("q")
		fmt.Fprintf(w, `[%q,["%s 1","%s 2","%s 3","%s 4","%s 5","%s 6","%s 7","%s 8","%s 9","%s 10"]]`,
			q, q, q, q, q, q, q, q, q, q, q)
	})
	mux.HandleFunc("/bing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `[%q,["bing a","bing b"]]`, r.URL.Query().Get("query"))
	})
	mux.HandleFunc("/baidu", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "golang", r.URL.Query().Get("wd"))
		assert.True(t, r.URL.Query().Has("cb"))
		fmt.Fprint(w, `({"q":"golang","p":false,"s":["golang 教程","golang 下载"]});`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, &config.SuggestConfig{
		GoogleURL: server.URL + "/google",
		BingURL:   server.URL + "/bing",
		BaiduURL:  server.URL + "/baidu",
	}
}

func TestSuggestions(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newSuggestServers(t, &calls)
	client := NewSuggestClient(cfg, testTimeout, nil)
	ctx := context.Background()

	google := client.Suggestions(ctx, "go", "google")
	assert.Equal(t, []string{"go 1", "go 2", "go 3", "go 4", "go 5", "go 6", "go 7", "go 8"}, google)

	assert.Equal(t, []string{"bing a", "bing b"}, client.Suggestions(ctx, "x", "Bing"))
	assert.Equal(t, []string{"golang 教程", "golang 下载"}, client.Suggestions(ctx, "golang", "baidu"))
	assert.Equal(t, []string{"golang 教程", "golang 下载"}, client.Suggestions(ctx, "golang", "百度"))

	// unknown engines and an empty engine use google
	assert.Len(t, client.Suggestions(ctx, "go", "duckduckgo"), 8)
	assert.Len(t, client.Suggestions(ctx, "go", ""), 8)
	assert.Equal(t, int32(6), calls.Load())
}

func TestSuggestionsEmptyQuerySkipsUpstream(t *testing.T) {
	var calls atomic.Int32
	_, cfg := newSuggestServers(t, &calls)
	client := NewSuggestClient(cfg, testTimeout, nil)

	for _, q := range []string{"", "   "} {
		res := client.Suggestions(context.Background(), q, "google")
		assert.NotNil(t, res)
		assert.Empty(t, res)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestSuggestionsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/google":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/bing":
			fmt.Fprint(w, `{"unexpected":true}`)
		default:
			fmt.Fprint(w, `window.sug(not json)`)
		}
	}))
	defer server.Close()

	client := NewSuggestClient(&config.SuggestConfig{
		GoogleURL: server.URL + "/google",
		BingURL:   server.URL + "/bing",
		BaiduURL:  server.URL + "/baidu",
	}, testTimeout, nil)

	for _, engine := range []string{"google", "bing", "baidu"} {
		res := client.Suggestions(context.Background(), "q", engine)
		assert.NotNil(t, res, engine)
		assert.Empty(t, res, engine)
	}
}

func TestParseJSONP(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{"bare parens", `({"s":["a","b"]})`, []string{"a", "b"}},
		{"named callback", `window.baidu.sug({"q":"x","s":["c"]});`, []string{"c"}},
		{"plain json", `{"s":["d"]}`, []string{"d"}},
		{"missing field", `({"q":"x"})`, []string{}},
		{"plain json with parens", `{"q":"a","s":["foo (bar)","baz"]}`, []string{"foo (bar)", "baz"}},
		{"callback with parens in payload", `cb({"s":["(x)","y)"]})`, []string{"(x)", "y)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJSONP([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := parseJSONP([]byte(`cb(oops)`))
	assert.Error(t, err)
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	bc := &config.BreakerConfig{Enabled: true, Failures: 2, OpenTimeout: time.Minute}
	client := NewWallpaperClient(&config.WallpaperConfig{URL: server.URL, Market: "zh-CN"}, testTimeout, bc)

	for range 5 {
		assert.Equal(t, Wallpaper{}, client.Fetch(context.Background()))
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	bc := &config.BreakerConfig{Enabled: true, Failures: 2, OpenTimeout: time.Minute}
	client := NewWeatherClient(&config.WeatherConfig{URL: server.URL}, testTimeout, bc)

	for range 4 {
		_, err := client.Fetch(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, ErrWeatherUnavailable)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewLocationClient(testLocationConfig(server.URL), 50*time.Millisecond, nil)
	start := time.Now()
	assert.Equal(t, fallbackLocation, client.Lookup(context.Background(), "203.0.113.7"))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
