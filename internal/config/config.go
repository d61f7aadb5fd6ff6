package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type SessionStoreType string

const (
	SessionStoreDatabase SessionStoreType = "database"
	SessionStoreMemory   SessionStoreType = "memory"
	SessionStoreCookie   SessionStoreType = "cookie"
)

const maxUpstreamTimeout = 30 * time.Second

// Config holds the configuration for the tabhome server.
type Config struct {
	// Listen is the address the HTTP server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Gzip enables gzip compression of responses.
	Gzip bool `yaml:"gzip" mapstructure:"gzip"`
	// Session holds the session cookie configuration.
	Session *SessionConfig `yaml:"session" mapstructure:"session"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Admin holds the credentials of the account seeded on first start.
	Admin *AdminConfig `yaml:"admin" mapstructure:"admin"`
	// Metrics holds the prometheus configuration.
	Metrics *MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	// Upstream holds the configuration of the third-party APIs.
	Upstream *UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`
}

// SessionConfig holds the session configuration.
type SessionConfig struct {
	// Key is the key used to sign session data.
	Key string `yaml:"key" mapstructure:"key"`
	// Name is the name of the session cookie.
	Name string `yaml:"name" mapstructure:"name"`
	// Store selects where session data lives: database, memory or cookie.
	Store SessionStoreType `yaml:"store" mapstructure:"store"`
	// MaxAge is the maximum age of a session in seconds.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
	// Secure sets the Secure flag on the session cookie.
	Secure bool `yaml:"secure" mapstructure:"secure"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// AdminConfig holds the seeded admin account.
type AdminConfig struct {
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// MetricsConfig holds the prometheus configuration.
type MetricsConfig struct {
	// Enabled exposes the /metrics endpoint.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// UpstreamConfig holds the configuration for all proxied third-party APIs.
type UpstreamConfig struct {
	Wallpaper *WallpaperConfig `yaml:"wallpaper" mapstructure:"wallpaper"`
	Weather   *WeatherConfig   `yaml:"weather" mapstructure:"weather"`
	Location  *LocationConfig  `yaml:"location" mapstructure:"location"`
	Suggest   *SuggestConfig   `yaml:"suggest" mapstructure:"suggest"`
	Timeouts  *TimeoutConfig   `yaml:"timeouts" mapstructure:"timeouts"`
	Breaker   *BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
}

// WallpaperConfig holds the configuration for the Bing wallpaper feed.
type WallpaperConfig struct {
	// URL is the base URL of Bing. Image paths from the feed are relative to it.
	URL string `yaml:"url" mapstructure:"url"`
	// Market is the Bing market code (e.g. zh-CN).
	Market string `yaml:"market" mapstructure:"market"`
}

// WeatherConfig holds the configuration for wttr.in.
type WeatherConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// LocationConfig holds the configuration for the ip-api.com geolocation service.
type LocationConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
	// FallbackCity, FallbackRegion and FallbackCountry are returned when the lookup fails.
	FallbackCity    string `yaml:"fallback_city" mapstructure:"fallback_city"`
	FallbackRegion  string `yaml:"fallback_region" mapstructure:"fallback_region"`
	FallbackCountry string `yaml:"fallback_country" mapstructure:"fallback_country"`
}

// SuggestConfig holds the search suggestion endpoints.
type SuggestConfig struct {
	GoogleURL string `yaml:"google_url" mapstructure:"google_url"`
	BingURL   string `yaml:"bing_url" mapstructure:"bing_url"`
	BaiduURL  string `yaml:"baidu_url" mapstructure:"baidu_url"`
}

// TimeoutConfig holds the per-adapter request timeouts.
type TimeoutConfig struct {
	Wallpaper time.Duration `yaml:"wallpaper" mapstructure:"wallpaper"`
	Weather   time.Duration `yaml:"weather" mapstructure:"weather"`
	Location  time.Duration `yaml:"location" mapstructure:"location"`
	Suggest   time.Duration `yaml:"suggest" mapstructure:"suggest"`
}

// BreakerConfig holds the circuit breaker configuration shared by all adapters.
type BreakerConfig struct {
	// Enabled wraps every adapter in a circuit breaker.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32 `yaml:"failures" mapstructure:"failures"`
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TABHOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tabhome")
		v.AddConfigPath("/etc/tabhome")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:9320")
	v.SetDefault("log_level", "info")
	v.SetDefault("gzip", true)

	// Session defaults
	v.SetDefault("session.key", "")
	v.SetDefault("session.name", "tabhome_session")
	v.SetDefault("session.store", SessionStoreDatabase)
	v.SetDefault("session.max_age", 604800) // 7 days
	v.SetDefault("session.secure", false)

	// Database defaults
	v.SetDefault("database.path", "./data/tabhome.db")

	// Admin defaults
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Upstream defaults
	v.SetDefault("upstream.wallpaper.url", "https://www.bing.com")
	v.SetDefault("upstream.wallpaper.market", "zh-CN")
	v.SetDefault("upstream.weather.url", "https://wttr.in")
	v.SetDefault("upstream.location.url", "http://ip-api.com")
	v.SetDefault("upstream.location.fallback_city", "北京")
	v.SetDefault("upstream.location.fallback_region", "北京")
	v.SetDefault("upstream.location.fallback_country", "中国")
	v.SetDefault("upstream.suggest.google_url", "https://suggestqueries.google.com/complete/search")
	v.SetDefault("upstream.suggest.bing_url", "https://api.bing.com/osjson.aspx")
	v.SetDefault("upstream.suggest.baidu_url", "https://suggestion.baidu.com/su")
	v.SetDefault("upstream.timeouts.wallpaper", 10*time.Second)
	v.SetDefault("upstream.timeouts.weather", 10*time.Second)
	v.SetDefault("upstream.timeouts.location", 5*time.Second)
	v.SetDefault("upstream.timeouts.suggest", 3*time.Second)
	v.SetDefault("upstream.breaker.enabled", true)
	v.SetDefault("upstream.breaker.failures", 5)
	v.SetDefault("upstream.breaker.open_timeout", 30*time.Second)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing tabhome config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.Session == nil {
		return fmt.Errorf("missing session config")
	}
	if c.Session.Key == "" {
		return fmt.Errorf("session key is required")
	}
	switch c.Session.Store {
	case SessionStoreDatabase, SessionStoreMemory, SessionStoreCookie:
	default:
		return fmt.Errorf("unknown session store %q (valid: database, memory, cookie)", c.Session.Store)
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Admin == nil {
		return fmt.Errorf("missing admin config")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	return validateUpstream(c.Upstream)
}

func validateUpstream(u *UpstreamConfig) error {
	if u == nil || u.Wallpaper == nil || u.Weather == nil || u.Location == nil || u.Suggest == nil || u.Timeouts == nil {
		return fmt.Errorf("missing upstream config")
	}

	urls := map[string]string{
		"upstream.wallpaper.url":      u.Wallpaper.URL,
		"upstream.weather.url":        u.Weather.URL,
		"upstream.location.url":       u.Location.URL,
		"upstream.suggest.google_url": u.Suggest.GoogleURL,
		"upstream.suggest.bing_url":   u.Suggest.BingURL,
		"upstream.suggest.baidu_url":  u.Suggest.BaiduURL,
	}
	for key, url := range urls {
		if url == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	if u.Location.FallbackCity == "" {
		return fmt.Errorf("upstream.location.fallback_city is required")
	}

	timeouts := map[string]time.Duration{
		"wallpaper": u.Timeouts.Wallpaper,
		"weather":   u.Timeouts.Weather,
		"location":  u.Timeouts.Location,
		"suggest":   u.Timeouts.Suggest,
	}
	for name, d := range timeouts {
		if d <= 0 || d > maxUpstreamTimeout {
			return fmt.Errorf("upstream.timeouts.%s must be between 0 and %s", name, maxUpstreamTimeout)
		}
	}

	if u.Breaker == nil {
		u.Breaker = &BreakerConfig{}
	}
	if u.Breaker.Enabled && u.Breaker.Failures == 0 {
		return fmt.Errorf("upstream.breaker.failures must be greater than 0 when the breaker is enabled")
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = strings.TrimSpace(c.Listen)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if c.Session != nil {
		c.Session.Store = SessionStoreType(strings.ToLower(strings.TrimSpace(string(c.Session.Store))))
	}

	u := c.Upstream
	if u == nil {
		return
	}
	if u.Wallpaper != nil {
		u.Wallpaper.URL = urlSanitize(u.Wallpaper.URL)
	}
	if u.Weather != nil {
		u.Weather.URL = urlSanitize(u.Weather.URL)
	}
	if u.Location != nil {
		u.Location.URL = urlSanitize(u.Location.URL)
	}
	if u.Suggest != nil {
		u.Suggest.GoogleURL = urlSanitize(u.Suggest.GoogleURL)
		u.Suggest.BingURL = urlSanitize(u.Suggest.BingURL)
		u.Suggest.BaiduURL = urlSanitize(u.Suggest.BaiduURL)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
