package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// DefaultSearchEngines are created on an empty search engine table.
func DefaultSearchEngines() []SearchEngine {
	return []SearchEngine{
		{Name: "Google", URLTemplate: "https://www.google.com/search?q={query}", IsDefault: true, Order: 1},
		{Name: "Bing", URLTemplate: "https://www.bing.com/search?q={query}", IsDefault: true, Order: 2},
		{Name: "百度", URLTemplate: "https://www.baidu.com/s?wd={query}", IsDefault: true, Order: 3},
	}
}

// SeedDefaults creates the default search engines and the settings row if they don't exist.
// It is safe to call on every start.
func (c *Client) SeedDefaults(ctx context.Context) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSettings(tx); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&SearchEngine{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		engines := DefaultSearchEngines()
		if err := tx.Create(&engines).Error; err != nil {
			return err
		}
		log.Info("seeded default search engines", "count", len(engines))
		return nil
	})
}
