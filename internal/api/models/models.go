package models

import "github.com/tabhome/tabhome/internal/optional"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by operations without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// CheckAuthResponse reports the session state. Username is omitted for anonymous sessions.
type CheckAuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Shortcut is the public representation of a database.Shortcut.
type Shortcut struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Icon  *string `json:"icon"`
	Order int     `json:"order"`
}

type CreateShortcutRequest struct {
	Name  string  `json:"name" binding:"required"`
	URL   string  `json:"url" binding:"required"`
	Icon  *string `json:"icon"`
	Order int     `json:"order"`
}

// UpdateShortcutRequest is a partial update; absent keys are left untouched.
type UpdateShortcutRequest struct {
	Name  optional.Value[string] `json:"name"`
	URL   optional.Value[string] `json:"url"`
	Icon  optional.Value[string] `json:"icon"`
	Order optional.Value[int]    `json:"order"`
}

// SearchEngine is the public representation of a database.SearchEngine.
type SearchEngine struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	URLTemplate string  `json:"url_template"`
	Icon        *string `json:"icon"`
	IsDefault   bool    `json:"is_default"`
	Order       int     `json:"order"`
}

type CreateSearchEngineRequest struct {
	Name        string  `json:"name" binding:"required"`
	URLTemplate string  `json:"url_template" binding:"required,search_template"`
	Icon        *string `json:"icon"`
	Order       int     `json:"order"`
}

type UpdateSearchEngineRequest struct {
	Name        optional.Value[string] `json:"name"`
	URLTemplate optional.Value[string] `json:"url_template" binding:"omitempty,search_template"`
	Icon        optional.Value[string] `json:"icon"`
	Order       optional.Value[int]    `json:"order"`
}

// Settings is the public representation of the settings row. The row id is not exposed.
type Settings struct {
	WallpaperMode         string  `json:"wallpaper_mode"`
	CustomWallpaperURL    *string `json:"custom_wallpaper_url"`
	DefaultSearchEngineID uint    `json:"default_search_engine_id"`
	ICPNumber             *string `json:"icp_number"`
	SiteTitle             *string `json:"site_title"`
}

type UpdateSettingsRequest struct {
	WallpaperMode         optional.Value[string] `json:"wallpaper_mode" binding:"omitempty,oneof=bing custom disabled"`
	CustomWallpaperURL    optional.Value[string] `json:"custom_wallpaper_url"`
	DefaultSearchEngineID optional.Value[uint]   `json:"default_search_engine_id"`
	ICPNumber             optional.Value[string] `json:"icp_number"`
	SiteTitle             optional.Value[string] `json:"site_title"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status string `json:"status"`
}
