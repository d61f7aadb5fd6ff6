package auth

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/tabhome/tabhome/internal/config"
	"gorm.io/gorm"
)

// NewSessionStore creates the session store selected in cfg.
// db is only used by the database store and may be nil otherwise.
func NewSessionStore(cfg *config.SessionConfig, db *gorm.DB) (sessions.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config is required")
	}
	key := []byte(cfg.Key)

	var store sessions.Store
	switch cfg.Store {
	case config.SessionStoreDatabase, "":
		if db == nil {
			return nil, fmt.Errorf("database session store requires a database")
		}
		store = gormsessions.NewStore(db, true, key)
	case config.SessionStoreMemory:
		store = memstore.NewStore(key)
	case config.SessionStoreCookie:
		store = cookie.NewStore(key)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
