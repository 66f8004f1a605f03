package storage

import (
	"context"
	"testing"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Rook", "Rook"},
		{"  Anne Marie  ", "Anne_Marie"},
		{"O'Neil", "ONeil"},
		{"../../etc/passwd", "....etcpasswd"},
		{"***", "invalid_name"},
		{"", "invalid_name"},
		{"..", "invalid_name"},
		{"Jean-Luc", "Jean-Luc"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.input))
		})
	}
}

func TestMockStore(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	p := actor.NewDefaultPlayer()
	p.Name = "Anne Marie"
	p.Species = "elf"
	p.Coins = 12
	require.NoError(t, m.SavePlayer(ctx, p))

	p.Coins = 99
	loaded, err := m.LoadPlayer(ctx, "Anne Marie")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Coins, "stored copy is independent")

	list, err := m.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anne Marie", list[0].Name)
	assert.Equal(t, "Anne_Marie", list[0].Key)
	assert.Equal(t, "elf", list[0].Species)

	require.NoError(t, m.AppendEvent(ctx, "Anne Marie", NewEvent(EventXPGained, map[string]any{"amount": 25})))
	assert.Equal(t, []string{EventXPGained}, m.EventTypes("Anne Marie"))

	require.NoError(t, m.DeleteCharacter(ctx, "Anne Marie"))
	_, err = m.LoadPlayer(ctx, "Anne Marie")
	assert.ErrorIs(t, err, ErrCharacterNotFound)
	assert.ErrorIs(t, m.DeleteCharacter(ctx, "Anne Marie"), ErrCharacterNotFound)
}
