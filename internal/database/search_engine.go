package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tabhome/tabhome/internal/optional"
	"gorm.io/gorm"
)

// QueryPlaceholder marks where the search terms go in a URL template.
const QueryPlaceholder = "{query}"

// SearchEngine is a selectable search provider.
// Seeded engines have IsDefault set and cannot be deleted.
type SearchEngine struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"not null;size:50"`
	URLTemplate string  `gorm:"not null;size:500"`
	Icon        *string `gorm:"size:500"`
	IsDefault   bool    `gorm:"not null;default:false"`
	Order       int     `gorm:"column:sort_order;not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SearchEnginePatch holds a partial update of a SearchEngine.
// IsDefault is intentionally absent: it is only ever set by the seed.
type SearchEnginePatch struct {
	Name        optional.Value[string]
	URLTemplate optional.Value[string]
	Icon        optional.Value[string]
	Order       optional.Value[int]
}

// Apply overwrites the fields present in p and validates the result.
func (p SearchEnginePatch) Apply(e *SearchEngine) error {
	if err := setRequired(&e.Name, p.Name, "name"); err != nil {
		return err
	}
	if err := setRequired(&e.URLTemplate, p.URLTemplate, "url_template"); err != nil {
		return err
	}
	setNullable(&e.Icon, p.Icon)
	if err := setRequired(&e.Order, p.Order, "order"); err != nil {
		return err
	}
	return e.Validate()
}

func (e *SearchEngine) Validate() error {
	if err := requireText(e.Name, "name"); err != nil {
		return err
	}
	if !strings.Contains(e.URLTemplate, QueryPlaceholder) {
		return fmt.Errorf("%w: url_template must contain %s", ErrInvalidPatch, QueryPlaceholder)
	}
	return nil
}

// SearchURL returns the template with the placeholder replaced by query.
// The caller is responsible for escaping query.
func (e *SearchEngine) SearchURL(query string) string {
	return strings.ReplaceAll(e.URLTemplate, QueryPlaceholder, query)
}

func (c *Client) ListSearchEngines(ctx context.Context) ([]SearchEngine, error) {
	engines := []SearchEngine{}
	if err := c.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&engines).Error; err != nil {
		log.Error("failed to list search engines", "error", err)
		return nil, err
	}
	return engines, nil
}

// CreateSearchEngine stores a user-defined engine. IsDefault is always reset.
func (c *Client) CreateSearchEngine(ctx context.Context, engine *SearchEngine) error {
	if err := engine.Validate(); err != nil {
		return err
	}
	engine.ID = 0
	engine.IsDefault = false
	if err := c.db.WithContext(ctx).Create(engine).Error; err != nil {
		log.Error("failed to create search engine", "error", err)
		return err
	}
	return nil
}

func (c *Client) UpdateSearchEngine(ctx context.Context, id uint, patch SearchEnginePatch) (*SearchEngine, error) {
	var engine SearchEngine
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&engine, id).Error; err != nil {
			return notFound(err, "search engine", id)
		}
		if err := patch.Apply(&engine); err != nil {
			return err
		}
		return tx.Save(&engine).Error
	})
	if err != nil {
		return nil, err
	}
	return &engine, nil
}

func (c *Client) DeleteSearchEngine(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var engine SearchEngine
		if err := tx.First(&engine, id).Error; err != nil {
			return notFound(err, "search engine", id)
		}
		if engine.IsDefault {
			return fmt.Errorf("search engine %d: %w", id, ErrProtectedEngine)
		}
		if err := tx.Delete(&engine).Error; err != nil {
			log.Error("failed to delete search engine", "error", err)
			return err
		}
		return nil
	})
}
