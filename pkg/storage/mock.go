package storage

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/jwebster45206/textland/pkg/actor"
)

// MockStore is an in-memory Store for testing. Saves are kept as JSON so
// callers never share state with what was stored.
type MockStore struct {
	mu        sync.RWMutex
	saves     map[string][]byte
	events    map[string][]Event
	pingError error
	saveError error
	saveCount int
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		saves:  make(map[string][]byte),
		events: make(map[string][]Event),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every save with the given error
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SaveCount returns how many saves succeeded.
func (m *MockStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

// PutRaw stores raw bytes as a character's save, for corrupt-save tests.
func (m *MockStore) PutRaw(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[SanitizeName(name)] = data
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) SavePlayer(ctx context.Context, p *actor.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.saves[SanitizeName(p.Name)] = data
	m.saveCount++
	return nil
}

func (m *MockStore) LoadPlayer(ctx context.Context, name string) (*actor.Player, error) {
	m.mu.RLock()
	data, ok := m.saves[SanitizeName(name)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCharacterNotFound
	}
	return actor.UnmarshalPlayer(data)
}

func (m *MockStore) ListCharacters(ctx context.Context) ([]CharacterSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CharacterSummary
	for _, key := range slices.Sorted(maps.Keys(m.saves)) {
		summary := CharacterSummary{Name: key, Key: key}
		if p, err := actor.UnmarshalPlayer(m.saves[key]); err == nil {
			summary.Name = p.Name
			summary.Species = p.Species
			summary.Class = p.Class
			summary.Level = p.Level
		}
		out = append(out, summary)
	}
	return out, nil
}

func (m *MockStore) DeleteCharacter(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SanitizeName(name)
	if _, ok := m.saves[key]; !ok {
		return ErrCharacterNotFound
	}
	delete(m.saves, key)
	delete(m.events, key)
	return nil
}

func (m *MockStore) AppendEvent(ctx context.Context, character string, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SanitizeName(character)
	m.events[key] = append(m.events[key], ev)
	return nil
}

func (m *MockStore) Events(ctx context.Context, character string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events[SanitizeName(character)]), nil
}

// EventTypes returns the logged event types for a character in order.
func (m *MockStore) EventTypes(character string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var types []string
	for _, ev := range m.events[SanitizeName(character)] {
		types = append(types, ev.Type)
	}
	return types
}
