package content

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const testLocations = `{
  "start": {
    "name": "Start",
    "zone": "Town",
    "exits": {"north": "hall"},
    "features": {
      "crate_a": {"model": "crate", "contains_on_open": ["coin"]},
      "crate_b": {"model": "crate", "description_closed": "A second crate."}
    },
    "npcs": {"rat": {"hostile": true, "type": "hostile"}}
  },
  "hall": {"name": "Hall", "zone": "Town", "exits": {"south": "start"}}
}`

const testModels = `
crate:
  description_closed: A crate.
  description_opened: An empty crate.
  closed: true
  actions:
    open:
      outcomes:
        - type: reveal_items
          message: You open it.
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "locations.json", testLocations)
	writeFile(t, dir, "feature_models.yaml", testModels)
	writeFile(t, dir, "items.yml", "coin:\n  name: Coin\n  type: currency\n")

	w, err := Load(dir, testLogger())
	require.NoError(t, err)

	start, ok := w.Location("start")
	require.True(t, ok)
	assert.Equal(t, "start", start.ID)

	a := start.Features["crate_a"]
	b := start.Features["crate_b"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.Closed)
	assert.Equal(t, []string{"coin"}, a.ContainsOnOpen)
	assert.Equal(t, "A crate.", a.CurrentDescription())
	assert.Equal(t, "A second crate.", b.CurrentDescription())
	assert.Contains(t, b.Actions, "open")

	t.Run("instances do not share state", func(t *testing.T) {
		a.Closed = false
		a.ContainsOnOpen = nil
		assert.True(t, b.Closed)
		assert.Empty(t, b.ContainsOnOpen)
	})

	t.Run("npc defaults", func(t *testing.T) {
		rat := start.NPCs["rat"]
		require.NotNil(t, rat)
		assert.Equal(t, "rat", rat.Name)
		assert.Equal(t, 10, rat.HP)
	})

	t.Run("item ids filled from keys", func(t *testing.T) {
		assert.Equal(t, "coin", w.Items["coin"].ID)
		assert.Equal(t, "Coin", w.Items.Name("coin"))
	})

	t.Run("missing optional tables load empty", func(t *testing.T) {
		assert.Empty(t, w.Species)
		assert.Empty(t, w.CityMaps)
	})
}

func TestLoadDegrades(t *testing.T) {
	tests := []struct {
		name          string
		files         map[string]string
		wantLocations []string
		wantProblem   string
	}{
		{
			name:        "no locations",
			files:       map[string]string{"items.json": `{"coin": {"name": "Coin"}}`},
			wantProblem: "no locations loaded",
		},
		{
			name:        "malformed locations",
			files:       map[string]string{"locations.json": `{"start": `},
			wantProblem: "table malformed",
		},
		{
			name: "malformed items keep locations",
			files: map[string]string{
				"locations.json": `{"a": {"name": "A"}}`,
				"items.json":     `{"sword": `,
			},
			wantLocations: []string{"a"},
			wantProblem:   "table malformed",
		},
		{
			name:          "unknown model keeps the feature",
			files:         map[string]string{"locations.json": `{"a": {"features": {"f": {"model": "nope", "description": "A lump."}}}}`},
			wantLocations: []string{"a"},
			wantProblem:   "unknown feature model",
		},
		{
			name:          "bad outcome type skips the record",
			files:         map[string]string{"locations.json": `{"a": {"name": "A"}, "b": {"features": {"f": {"actions": {"poke": {"outcomes": [{"type": "explode"}]}}}}}}`},
			wantLocations: []string{"a"},
			wantProblem:   "record skipped",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tt.files {
				writeFile(t, dir, name, body)
			}
			w, err := Load(dir, testLogger())
			require.NoError(t, err)
			require.NotNil(t, w)

			assert.ElementsMatch(t, tt.wantLocations, slices.Collect(maps.Keys(w.Locations)))
			problems := w.Validate()
			require.NotEmpty(t, problems)
			assert.Contains(t, problems[0], tt.wantProblem)
		})
	}

	t.Run("unusable directory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing"), testLogger())
		assert.Error(t, err)
	})
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "locations.json", testLocations)
	writeFile(t, dir, "feature_models.yaml", testModels)

	w, err := Load(dir, testLogger())
	require.NoError(t, err)

	delete(w.Locations["start"].NPCs, "rat")
	writeFile(t, dir, "locations.json", `{"start": {"name": "Start Renamed", "npcs": {"rat": {}}}}`)

	require.NoError(t, w.Reload())
	assert.Equal(t, "Start Renamed", w.Locations["start"].Name)
	assert.Contains(t, w.Locations["start"].NPCs, "rat")
	_, ok := w.Location("hall")
	assert.False(t, ok)
}

func TestBundledContent(t *testing.T) {
	w, err := Load(filepath.Join("..", "..", "data"), testLogger())
	require.NoError(t, err)

	assert.Empty(t, w.Validate())
	assert.Contains(t, w.Locations, DefaultStartLocation)
	assert.True(t, w.IsCityZone("Eldoria"))
	assert.False(t, w.IsCityZone("StartingZone"))

	crate := w.Locations[DefaultStartLocation].Features["worn_crate"]
	require.NotNil(t, crate)
	assert.True(t, crate.Closed)
	assert.Equal(t, "found_starter_items", crate.SetsFlag)

	human, ok := w.FindSpecies("Human")
	require.True(t, ok)
	assert.Equal(t, 5, human.StatBonuses.HP)
}

func TestValidate(t *testing.T) {
	w := NewWorld(WithStartLocation("a"))
	w.Locations["a"] = &Location{ID: "a", Exits: map[string]string{"north": "missing"}, Items: []string{"ghost"}}
	w.CityMaps["town"] = &CityMap{
		Rows:    []string{"#."},
		Legend:  map[string]CityCell{"#": {Name: "Wall", Impassable: true}},
		Entries: map[string]Point{"a": {X: 0, Y: 0}, "b": {X: 5, Y: 0}},
	}

	problems := w.Validate()
	assert.Contains(t, problems, `location a: exit north leads to unknown location "missing"`)
	assert.Contains(t, problems, `location a: unknown item "ghost"`)
	assert.Contains(t, problems, "city map town: entry for a at (0,0) is impassable")
	assert.Contains(t, problems, `city map town: entry from unknown location "b"`)
	assert.Contains(t, problems, "city map town: entry for b at (5,0) is off the grid")
}
