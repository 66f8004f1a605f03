// Package storage holds the save store backends: a directory per character
// on disk, or Redis.
package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/storage"
)

// File names inside a character directory.
const (
	CharacterFile = "character.json"
	EventsFile    = "events.jsonl"
)

// FileStore keeps each character in <dir>/<sanitized name>/ with the save in
// character.json and the event log in events.jsonl.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex // Serializes writes
}

// Ensure FileStore implements Store interface
var _ storage.Store = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "./player_data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the root save directory.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) characterDir(name string) string {
	return filepath.Join(f.dir, storage.SanitizeName(name))
}

// Health and lifecycle methods

func (f *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

// Character saves

// SavePlayer writes character.json through a temp file and rename so a
// crash never leaves a half-written save.
func (f *FileStore) SavePlayer(ctx context.Context, p *actor.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.characterDir(p.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create character directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, CharacterFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp save: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, CharacterFile)); err != nil {
		return fmt.Errorf("failed to replace save: %w", err)
	}
	f.logger.Debug("Character saved", "character", p.Name, "dir", dir)
	return nil
}

func (f *FileStore) LoadPlayer(ctx context.Context, name string) (*actor.Player, error) {
	path := filepath.Join(f.characterDir(name), CharacterFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return actor.UnmarshalPlayer(data)
}

// ListCharacters scans the save directory. Directories without a readable
// save are skipped with a warning.
func (f *FileStore) ListCharacters(ctx context.Context) ([]storage.CharacterSummary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.CharacterSummary{}, nil
		}
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}

	out := []storage.CharacterSummary{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(f.dir, entry.Name(), CharacterFile)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				f.logger.Warn("Failed to read save file", "path", path, "error", err)
			}
			continue
		}
		p, err := actor.UnmarshalPlayer(data)
		if err != nil {
			f.logger.Warn("Failed to parse save file", "path", path, "error", err)
			continue
		}
		out = append(out, storage.CharacterSummary{
			Name:    p.Name,
			Key:     entry.Name(),
			Species: p.Species,
			Class:   p.Class,
			Level:   p.Level,
		})
	}
	return out, nil
}

// DeleteCharacter removes the character's whole directory, events included.
func (f *FileStore) DeleteCharacter(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.characterDir(name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrCharacterNotFound
		}
		return fmt.Errorf("failed to stat character directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// Event log

func (f *FileStore) AppendEvent(ctx context.Context, character string, ev storage.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.characterDir(character)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create character directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(ev); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (f *FileStore) Events(ctx context.Context, character string) ([]storage.Event, error) {
	path := filepath.Join(f.characterDir(character), EventsFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.Event{}, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	events := []storage.Event{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev storage.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			f.logger.Warn("Skipping malformed event", "path", path, "error", err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return events, nil
}
