package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPlayer(name string) *actor.Player {
	p := actor.NewDefaultPlayer()
	p.Name = name
	p.Species = "elf"
	p.Class = "rogue"
	p.Level = 3
	p.Coins = 42
	p.HP, p.MaxHP, p.BaseMaxHP = 30, 40, 40
	p.CurrentLocationID = "market_square"
	p.Inventory = []string{"healing_potion", "healing_potion", "rusty_key"}
	p.Equipment["weapon"] = "simple_knife"
	p.VisitedLocations.Add("market_square")
	p.Flags["met_mayor"] = true
	return p
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, fs.Ping(ctx))

	p := testPlayer("Anne Marie")
	require.NoError(t, fs.SavePlayer(ctx, p))

	_, err = os.Stat(filepath.Join(dir, "Anne_Marie", CharacterFile))
	require.NoError(t, err)

	loaded, err := fs.LoadPlayer(ctx, "Anne Marie")
	require.NoError(t, err)
	assert.Equal(t, p.Name, loaded.Name)
	assert.Equal(t, p.Coins, loaded.Coins)
	assert.Equal(t, p.Inventory, loaded.Inventory)
	assert.Equal(t, "simple_knife", loaded.Equipment["weapon"])
	assert.True(t, loaded.VisitedLocations.Has("market_square"))
	assert.Equal(t, true, loaded.Flags["met_mayor"])

	// Overwrite leaves no temp files behind.
	p.Coins = 7
	require.NoError(t, fs.SavePlayer(ctx, p))
	entries, err := os.ReadDir(filepath.Join(dir, "Anne_Marie"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	loaded, err = fs.LoadPlayer(ctx, "Anne Marie")
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Coins)
}

func TestFileStore_LoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	_, err = fs.LoadPlayer(ctx, "Nobody")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken", CharacterFile), []byte("{not json"), 0o644))
	_, err = fs.LoadPlayer(ctx, "Broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrCharacterNotFound)
}

func TestFileStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	list, err := fs.ListCharacters(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, fs.SavePlayer(ctx, testPlayer("Rook")))
	require.NoError(t, fs.SavePlayer(ctx, testPlayer("Wren")))
	// Stray entries are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	list, err = fs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rook", list[0].Name)
	assert.Equal(t, "elf", list[0].Species)
	assert.Equal(t, 3, list[0].Level)

	require.NoError(t, fs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventGameSaved, nil)))
	require.NoError(t, fs.DeleteCharacter(ctx, "Rook"))
	_, err = os.Stat(filepath.Join(dir, "Rook"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, fs.DeleteCharacter(ctx, "Rook"), storage.ErrCharacterNotFound)

	list, err = fs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Wren", list[0].Name)
}

func TestFileStore_Events(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	events, err := fs.Events(ctx, "Rook")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, fs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventItemAcquisition, map[string]any{"item_id": "rusty_key"})))
	require.NoError(t, fs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventCurrencyGained, map[string]any{"amount": 5})))

	// A torn line in the middle of the log is skipped.
	f, err := os.OpenFile(filepath.Join(dir, "Rook", EventsFile), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"event_type\":\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, fs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventLevelUp, nil)))

	events, err = fs.Events(ctx, "Rook")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, storage.EventItemAcquisition, events[0].Type)
	assert.Equal(t, "rusty_key", events[0].Data["item_id"])
	assert.Equal(t, float64(5), events[1].Data["amount"])
	assert.Equal(t, storage.EventLevelUp, events[2].Type)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}
