package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tabhome/tabhome/internal/optional"
	"gorm.io/gorm"
)

// Shortcut is a link tile on the homepage.
type Shortcut struct {
	ID   uint    `gorm:"primaryKey"`
	Name string  `gorm:"not null;size:100"`
	URL  string  `gorm:"not null;size:500"`
	Icon *string `gorm:"size:500"`
	// Order is advisory; duplicates are allowed.
	Order     int `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShortcutPatch holds a partial update of a Shortcut.
type ShortcutPatch struct {
	Name  optional.Value[string]
	URL   optional.Value[string]
	Icon  optional.Value[string]
	Order optional.Value[int]
}

// Apply overwrites the fields present in p and validates the result.
func (p ShortcutPatch) Apply(s *Shortcut) error {
	if err := setRequired(&s.Name, p.Name, "name"); err != nil {
		return err
	}
	if err := setRequired(&s.URL, p.URL, "url"); err != nil {
		return err
	}
	setNullable(&s.Icon, p.Icon)
	if err := setRequired(&s.Order, p.Order, "order"); err != nil {
		return err
	}
	return s.Validate()
}

func (s *Shortcut) Validate() error {
	if err := requireText(s.Name, "name"); err != nil {
		return err
	}
	return requireText(s.URL, "url")
}

func (c *Client) ListShortcuts(ctx context.Context) ([]Shortcut, error) {
	shortcuts := []Shortcut{}
	if err := c.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&shortcuts).Error; err != nil {
		log.Error("failed to list shortcuts", "error", err)
		return nil, err
	}
	return shortcuts, nil
}

func (c *Client) CreateShortcut(ctx context.Context, shortcut *Shortcut) error {
	if err := shortcut.Validate(); err != nil {
		return err
	}
	shortcut.ID = 0
	if err := c.db.WithContext(ctx).Create(shortcut).Error; err != nil {
		log.Error("failed to create shortcut", "error", err)
		return err
	}
	return nil
}

func (c *Client) UpdateShortcut(ctx context.Context, id uint, patch ShortcutPatch) (*Shortcut, error) {
	var shortcut Shortcut
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shortcut, id).Error; err != nil {
			return notFound(err, "shortcut", id)
		}
		if err := patch.Apply(&shortcut); err != nil {
			return err
		}
		return tx.Save(&shortcut).Error
	})
	if err != nil {
		return nil, err
	}
	return &shortcut, nil
}

func (c *Client) DeleteShortcut(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&Shortcut{}, id)
	if result.Error != nil {
		log.Error("failed to delete shortcut", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "shortcut", id)
	}
	return nil
}
