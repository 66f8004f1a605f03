package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/textland/pkg/storage"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	rs, err := NewRedisStore("redis://"+mr.Addr(), testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis store: %v", err)
	}
	return rs, mr
}

func TestRedisOptions(t *testing.T) {
	opt, err := redisOptions("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)

	opt, err = redisOptions("cache:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opt.Addr)

	opt, err = redisOptions("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)

	_, err = redisOptions("http://[::1")
	assert.Error(t, err)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer rs.Close()
	ctx := context.Background()

	require.NoError(t, rs.Ping(ctx))
	require.NoError(t, rs.WaitForConnection(ctx))

	p := testPlayer("Anne Marie")
	require.NoError(t, rs.SavePlayer(ctx, p))

	assert.True(t, mr.Exists("textland:character:Anne_Marie"))
	assert.Equal(t, "elf", mr.HGet("textland:character:Anne_Marie", "species"))
	members, err := mr.Members(redisCharacterIndex)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anne_Marie"}, members)

	loaded, err := rs.LoadPlayer(ctx, "Anne Marie")
	require.NoError(t, err)
	assert.Equal(t, p.Name, loaded.Name)
	assert.Equal(t, p.Inventory, loaded.Inventory)
	assert.Equal(t, 42, loaded.Coins)

	_, err = rs.LoadPlayer(ctx, "Nobody")
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)

	mr.HSet("textland:character:Broken", "data", "{nope")
	_, err = rs.LoadPlayer(ctx, "Broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrCharacterNotFound)
}

func TestRedisStore_ListAndDelete(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer rs.Close()
	ctx := context.Background()

	require.NoError(t, rs.SavePlayer(ctx, testPlayer("Wren")))
	require.NoError(t, rs.SavePlayer(ctx, testPlayer("Rook")))
	// Dangling index entries are skipped.
	_, err := mr.SetAdd(redisCharacterIndex, "Ghost")
	require.NoError(t, err)

	list, err := rs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rook", list[0].Name)
	assert.Equal(t, "rogue", list[0].Class)
	assert.Equal(t, 3, list[0].Level)
	assert.Equal(t, "Wren", list[1].Key)

	require.NoError(t, rs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventGameSaved, nil)))
	require.NoError(t, rs.DeleteCharacter(ctx, "Rook"))
	assert.False(t, mr.Exists("textland:character:Rook"))
	assert.False(t, mr.Exists("textland:events:Rook"))
	assert.ErrorIs(t, rs.DeleteCharacter(ctx, "Rook"), storage.ErrCharacterNotFound)

	list, err = rs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRedisStore_Events(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer rs.Close()
	ctx := context.Background()

	events, err := rs.Events(ctx, "Rook")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, rs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventXPGained, map[string]any{"amount": 40})))
	_, err = mr.Push("textland:events:Rook", "garbage")
	require.NoError(t, err)
	require.NoError(t, rs.AppendEvent(ctx, "Rook", storage.NewEvent(storage.EventLevelUp, nil)))

	events, err = rs.Events(ctx, "Rook")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, storage.EventXPGained, events[0].Type)
	assert.Equal(t, float64(40), events[0].Data["amount"])
	assert.Equal(t, storage.EventLevelUp, events[1].Type)
}

func TestRedisStore_PingFailure(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer rs.Close()
	mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, rs.Ping(ctx))
	assert.Error(t, rs.WaitForConnection(ctx))
}
