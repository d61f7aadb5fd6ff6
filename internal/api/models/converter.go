package models

import (
	"github.com/tabhome/tabhome/internal/database"
	"github.com/tabhome/tabhome/internal/optional"
)

// ToShortcut converts a database.Shortcut to its API representation.
func ToShortcut(s database.Shortcut) Shortcut {
	return Shortcut{
		ID:    s.ID,
		Name:  s.Name,
		URL:   s.URL,
		Icon:  s.Icon,
		Order: s.Order,
	}
}

// ToShortcuts converts a list of shortcuts. The result is never nil.
func ToShortcuts(list []database.Shortcut) []Shortcut {
	out := make([]Shortcut, 0, len(list))
	for _, s := range list {
		out = append(out, ToShortcut(s))
	}
	return out
}

func (r CreateShortcutRequest) ToDB() database.Shortcut {
	return database.Shortcut{
		Name:  r.Name,
		URL:   r.URL,
		Icon:  r.Icon,
		Order: r.Order,
	}
}

func (r UpdateShortcutRequest) ToPatch() database.ShortcutPatch {
	return database.ShortcutPatch{
		Name:  r.Name,
		URL:   r.URL,
		Icon:  r.Icon,
		Order: r.Order,
	}
}

func ToSearchEngine(e database.SearchEngine) SearchEngine {
	return SearchEngine{
		ID:          e.ID,
		Name:        e.Name,
		URLTemplate: e.URLTemplate,
		Icon:        e.Icon,
		IsDefault:   e.IsDefault,
		Order:       e.Order,
	}
}

func ToSearchEngines(list []database.SearchEngine) []SearchEngine {
	out := make([]SearchEngine, 0, len(list))
	for _, e := range list {
		out = append(out, ToSearchEngine(e))
	}
	return out
}

func (r CreateSearchEngineRequest) ToDB() database.SearchEngine {
	return database.SearchEngine{
		Name:        r.Name,
		URLTemplate: r.URLTemplate,
		Icon:        r.Icon,
		Order:       r.Order,
	}
}

func (r UpdateSearchEngineRequest) ToPatch() database.SearchEnginePatch {
	return database.SearchEnginePatch{
		Name:        r.Name,
		URLTemplate: r.URLTemplate,
		Icon:        r.Icon,
		Order:       r.Order,
	}
}

func ToSettings(s database.Settings) Settings {
	return Settings{
		WallpaperMode:         string(s.WallpaperMode),
		CustomWallpaperURL:    s.CustomWallpaperURL,
		DefaultSearchEngineID: s.DefaultSearchEngineID,
		ICPNumber:             s.ICPNumber,
		SiteTitle:             s.SiteTitle,
	}
}

func (r UpdateSettingsRequest) ToPatch() database.SettingsPatch {
	patch := database.SettingsPatch{
		CustomWallpaperURL:    r.CustomWallpaperURL,
		DefaultSearchEngineID: r.DefaultSearchEngineID,
		ICPNumber:             r.ICPNumber,
		SiteTitle:             r.SiteTitle,
	}
	switch {
	case r.WallpaperMode.IsNull():
		patch.WallpaperMode = optional.Null[database.WallpaperMode]()
	case r.WallpaperMode.IsSet():
		mode, _ := r.WallpaperMode.Get()
		patch.WallpaperMode = optional.Of(database.WallpaperMode(mode))
	}
	return patch
}
