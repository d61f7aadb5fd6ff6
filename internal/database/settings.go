package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tabhome/tabhome/internal/optional"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsID is the primary key of the only settings row.
const settingsID = 1

type WallpaperMode string

const (
	WallpaperModeBing     WallpaperMode = "bing"
	WallpaperModeCustom   WallpaperMode = "custom"
	WallpaperModeDisabled WallpaperMode = "disabled"
)

// Valid reports whether m is a known wallpaper mode.
func (m WallpaperMode) Valid() bool {
	switch m {
	case WallpaperModeBing, WallpaperModeCustom, WallpaperModeDisabled:
		return true
	}
	return false
}

// Settings holds the site-wide display settings. The table holds at most one row.
type Settings struct {
	ID                 uint          `gorm:"primaryKey"`
	WallpaperMode      WallpaperMode `gorm:"not null;size:20;default:bing"`
	CustomWallpaperURL *string       `gorm:"size:500"`
	// DefaultSearchEngineID is stored as-is and never checked against search_engines.
	DefaultSearchEngineID uint    `gorm:"not null;default:1"`
	ICPNumber             *string `gorm:"column:icp_number;size:100"`
	SiteTitle             *string `gorm:"size:100"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SettingsPatch holds a partial update of the settings.
type SettingsPatch struct {
	WallpaperMode         optional.Value[WallpaperMode]
	CustomWallpaperURL    optional.Value[string]
	DefaultSearchEngineID optional.Value[uint]
	ICPNumber             optional.Value[string]
	SiteTitle             optional.Value[string]
}

func (p SettingsPatch) Apply(s *Settings) error {
	if err := setRequired(&s.WallpaperMode, p.WallpaperMode, "wallpaper_mode"); err != nil {
		return err
	}
	if !s.WallpaperMode.Valid() {
		return fmt.Errorf("%w: wallpaper_mode must be one of bing, custom, disabled", ErrInvalidPatch)
	}
	setNullable(&s.CustomWallpaperURL, p.CustomWallpaperURL)
	if err := setRequired(&s.DefaultSearchEngineID, p.DefaultSearchEngineID, "default_search_engine_id"); err != nil {
		return err
	}
	setNullableText(&s.ICPNumber, p.ICPNumber)
	setNullableText(&s.SiteTitle, p.SiteTitle)
	return nil
}

func defaultSettings() Settings {
	return Settings{
		ID:                    settingsID,
		WallpaperMode:         WallpaperModeBing,
		DefaultSearchEngineID: 1,
	}
}

// ensureSettings inserts the default settings row unless it already exists.
// The fixed primary key makes concurrent inserts collapse into one row.
func ensureSettings(tx *gorm.DB) error {
	defaults := defaultSettings()
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
}

// GetSettings returns the settings row, creating it with defaults on first access.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var settings Settings
	err := c.db.WithContext(ctx).First(&settings, settingsID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("failed to get settings", "error", err)
		return nil, err
	}

	v, err, _ := c.settingsGroup.Do("settings", func() (any, error) {
		return c.createSettings(ctx)
	})
	if err != nil {
		return nil, err
	}
	settings = v.(Settings)
	return &settings, nil
}

// createSettings inserts the default row and reads it back. Its result is shared
// by every collapsed caller, so it does not follow the cancellation of ctx.
func (c *Client) createSettings(ctx context.Context) (Settings, error) {
	db := c.db.WithContext(context.WithoutCancel(ctx))
	if err := ensureSettings(db); err != nil {
		log.Error("failed to create default settings", "error", err)
		return Settings{}, err
	}
	var created Settings
	if err := db.First(&created, settingsID).Error; err != nil {
		return Settings{}, err
	}
	return created, nil
}

// UpdateSettings applies patch to the settings row, creating it first if needed.
func (c *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) (*Settings, error) {
	var settings Settings
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSettings(tx); err != nil {
			return err
		}
		if err := tx.First(&settings, settingsID).Error; err != nil {
			return err
		}
		if err := patch.Apply(&settings); err != nil {
			return err
		}
		return tx.Save(&settings).Error
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
