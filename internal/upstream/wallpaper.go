package upstream

import (
	"context"
	"net/url"
	"time"

	"github.com/tabhome/tabhome/internal/config"
	"github.com/tidwall/gjson"
)

// Wallpaper is the image of the day. Both fields are empty when the feed is unavailable.
type Wallpaper struct {
	URL       string `json:"url"`
	Copyright string `json:"copyright"`
}

// WallpaperClient reads the Bing image archive feed.
type WallpaperClient struct {
	caller  *caller
	baseURL string
	market  string
}

func NewWallpaperClient(cfg *config.WallpaperConfig, timeout time.Duration, bc *config.BreakerConfig) *WallpaperClient {
	return &WallpaperClient{
		caller:  newCaller("wallpaper", timeout, bc),
		baseURL: cfg.URL,
		market:  cfg.Market,
	}
}

// Fetch returns the current wallpaper. It never fails.
func (w *WallpaperClient) Fetch(ctx context.Context) Wallpaper {
	params := url.Values{}
	params.Set("format", "js")
	params.Set("idx", "0")
	params.Set("n", "1")
	params.Set("mkt", w.market)

	body, err := w.caller.get(ctx, w.baseURL+"/HPImageArchive.aspx?"+params.Encode(), nil)
	if err != nil || !gjson.ValidBytes(body) {
		return Wallpaper{}
	}

	image := gjson.GetBytes(body, "images.0")
	path := image.Get("url").String()
	if path == "" {
		return Wallpaper{}
	}
	return Wallpaper{
		URL:       w.baseURL + path,
		Copyright: image.Get("copyright").String(),
	}
}
