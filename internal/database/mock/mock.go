package mock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tabhome/tabhome/internal/database"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is an in-memory implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	users      map[uint]*database.User
	nextUserID uint

	shortcuts      map[uint]*database.Shortcut
	nextShortcutID uint

	engines      map[uint]*database.SearchEngine
	nextEngineID uint

	settings *database.Settings

	// Error simulation
	GetUserError       error
	ListShortcutsError error
	ListEnginesError   error
	GetSettingsError   error
	WriteError         error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:          make(map[uint]*database.User),
		nextUserID:     1,
		shortcuts:      make(map[uint]*database.Shortcut),
		nextShortcutID: 1,
		engines:        make(map[uint]*database.SearchEngine),
		nextEngineID:   1,
	}
}

func (m *MockDB) GetUserByID(_ context.Context, id uint) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *MockDB) GetUserByUsername(_ context.Context, username string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, database.ErrNotFound)
}

func (m *MockDB) CreateUser(_ context.Context, username, passwordHash string) (*database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return nil, m.WriteError
	}
	for _, u := range m.users {
		if u.Username == username {
			return nil, errors.New("UNIQUE constraint failed: users.username")
		}
	}
	u := &database.User{ID: m.nextUserID, Username: username, PasswordHash: passwordHash}
	m.users[u.ID] = u
	m.nextUserID++
	cp := *u
	return &cp, nil
}

func (m *MockDB) UpdateUserPassword(_ context.Context, id uint, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

// DeleteUser removes a user, simulating an account that vanished while a session still references it.
func (m *MockDB) DeleteUser(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *MockDB) ListShortcuts(_ context.Context) ([]database.Shortcut, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListShortcutsError != nil {
		return nil, m.ListShortcutsError
	}
	out := make([]database.Shortcut, 0, len(m.shortcuts))
	for _, s := range m.shortcuts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockDB) CreateShortcut(_ context.Context, shortcut *database.Shortcut) error {
	if err := shortcut.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	shortcut.ID = m.nextShortcutID
	m.nextShortcutID++
	cp := *shortcut
	m.shortcuts[cp.ID] = &cp
	return nil
}

func (m *MockDB) UpdateShortcut(_ context.Context, id uint, patch database.ShortcutPatch) (*database.Shortcut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return nil, m.WriteError
	}
	s, ok := m.shortcuts[id]
	if !ok {
		return nil, fmt.Errorf("shortcut %d: %w", id, database.ErrNotFound)
	}
	updated := *s
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	m.shortcuts[id] = &updated
	cp := updated
	return &cp, nil
}

func (m *MockDB) DeleteShortcut(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	if _, ok := m.shortcuts[id]; !ok {
		return fmt.Errorf("shortcut %d: %w", id, database.ErrNotFound)
	}
	delete(m.shortcuts, id)
	return nil
}

func (m *MockDB) ListSearchEngines(_ context.Context) ([]database.SearchEngine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListEnginesError != nil {
		return nil, m.ListEnginesError
	}
	out := make([]database.SearchEngine, 0, len(m.engines))
	for _, e := range m.engines {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockDB) CreateSearchEngine(_ context.Context, engine *database.SearchEngine) error {
	if err := engine.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	engine.ID = m.nextEngineID
	engine.IsDefault = false
	m.nextEngineID++
	cp := *engine
	m.engines[cp.ID] = &cp
	return nil
}

func (m *MockDB) UpdateSearchEngine(_ context.Context, id uint, patch database.SearchEnginePatch) (*database.SearchEngine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return nil, m.WriteError
	}
	e, ok := m.engines[id]
	if !ok {
		return nil, fmt.Errorf("search engine %d: %w", id, database.ErrNotFound)
	}
	updated := *e
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	m.engines[id] = &updated
	cp := updated
	return &cp, nil
}

func (m *MockDB) DeleteSearchEngine(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	e, ok := m.engines[id]
	if !ok {
		return fmt.Errorf("search engine %d: %w", id, database.ErrNotFound)
	}
	if e.IsDefault {
		return fmt.Errorf("search engine %d: %w", id, database.ErrProtectedEngine)
	}
	delete(m.engines, id)
	return nil
}

func (m *MockDB) GetSettings(_ context.Context) (*database.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSettingsError != nil {
		return nil, m.GetSettingsError
	}
	m.ensureSettings()
	cp := *m.settings
	return &cp, nil
}

func (m *MockDB) UpdateSettings(_ context.Context, patch database.SettingsPatch) (*database.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return nil, m.WriteError
	}
	m.ensureSettings()
	updated := *m.settings
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	m.settings = &updated
	cp := updated
	return &cp, nil
}

func (m *MockDB) ensureSettings() {
	if m.settings == nil {
		m.settings = &database.Settings{
			ID:                    1,
			WallpaperMode:         database.WallpaperModeBing,
			DefaultSearchEngineID: 1,
		}
	}
}

func (m *MockDB) SeedDefaults(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.ensureSettings()
	if len(m.engines) > 0 {
		return nil
	}
	for _, e := range database.DefaultSearchEngines() {
		e.ID = m.nextEngineID
		m.nextEngineID++
		m.engines[e.ID] = &e
	}
	return nil
}

func (m *MockDB) Counts(_ context.Context) (*database.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := &database.Counts{
		Users:         int64(len(m.users)),
		Shortcuts:     int64(len(m.shortcuts)),
		SearchEngines: int64(len(m.engines)),
	}
	if m.settings != nil {
		counts.Settings = 1
	}
	return counts, nil
}
