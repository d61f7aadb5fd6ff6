package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrProtectedEngine is returned when deleting one of the seeded search engines.
	ErrProtectedEngine = errors.New("search engine is protected")
	// ErrInvalidPatch is returned when a create or update carries an invalid value.
	ErrInvalidPatch = errors.New("invalid value")
)

// sqlite pragmas applied to every connection. busy_timeout lets concurrent
// writers wait on each other instead of failing with SQLITE_BUSY.
var defaultPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// DB is the persistence interface used by the API handlers.
type DB interface {
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error

	ListShortcuts(ctx context.Context) ([]Shortcut, error)
	CreateShortcut(ctx context.Context, shortcut *Shortcut) error
	UpdateShortcut(ctx context.Context, id uint, patch ShortcutPatch) (*Shortcut, error)
	DeleteShortcut(ctx context.Context, id uint) error

	ListSearchEngines(ctx context.Context) ([]SearchEngine, error)
	CreateSearchEngine(ctx context.Context, engine *SearchEngine) error
	UpdateSearchEngine(ctx context.Context, id uint, patch SearchEnginePatch) (*SearchEngine, error)
	DeleteSearchEngine(ctx context.Context, id uint) error

	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (*Settings, error)

	SeedDefaults(ctx context.Context) error
	Counts(ctx context.Context) (*Counts, error)
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB

	// settingsGroup collapses concurrent lazy creations of the settings row.
	settingsGroup singleflight.Group
}

// New creates a new database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbpath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// One connection: transactions wait in the pool instead of failing with SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&User{},
		&Shortcut{},
		&Settings{},
		&SearchEngine{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Gorm exposes the underlying gorm handle, e.g. for the database session store.
func (c *Client) Gorm() *gorm.DB {
	return c.db
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withPragmas(dbpath string) string {
	params := make([]string, 0, len(defaultPragmas))
	for _, p := range defaultPragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dbpath, "?") {
		sep = "&"
	}
	return dbpath + sep + strings.Join(params, "&")
}

// notFound converts gorm.ErrRecordNotFound into ErrNotFound and leaves other errors untouched.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
