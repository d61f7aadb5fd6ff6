package upstream

import "github.com/tabhome/tabhome/internal/config"

// Clients bundles the clients of all proxied APIs.
type Clients struct {
	Wallpaper *WallpaperClient
	Weather   *WeatherClient
	Location  *LocationClient
	Suggest   *SuggestClient
}

// New creates all clients from the upstream configuration.
func New(cfg *config.UpstreamConfig) *Clients {
	t := cfg.Timeouts
	return &Clients{
		Wallpaper: NewWallpaperClient(cfg.Wallpaper, t.Wallpaper, cfg.Breaker),
		Weather:   NewWeatherClient(cfg.Weather, t.Weather, cfg.Breaker),
		Location:  NewLocationClient(cfg.Location, t.Location, cfg.Breaker),
		Suggest:   NewSuggestClient(cfg.Suggest, t.Suggest, cfg.Breaker),
	}
}
