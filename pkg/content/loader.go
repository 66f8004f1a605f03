package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/textland/pkg/actor"
)

// Content tables. Each may be stored as <name>.json, <name>.yaml or <name>.yml.
const (
	TableLocations     = "locations"
	TableItems         = "items"
	TableSpecies       = "species"
	TableClasses       = "classes"
	TableZoneLayouts   = "zone_layouts"
	TableCityMaps      = "city_maps"
	TableFeatureModels = "feature_models"
)

var tableExtensions = []string{".json", ".yaml", ".yml"}

// Load reads every content table from dir. A table that is missing or
// malformed loads as empty, and a record that fails to decode is skipped;
// both are logged and reported by Validate. Only an unusable dir is an error.
func Load(dir string, logger *slog.Logger, opts ...Option) (*World, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", dir)
	}

	w := NewWorld(opts...)
	w.dir = dir
	w.logger = logger
	w.load()
	return w, nil
}

// Reload re-reads content from disk, replacing every table. Live state held
// in the old tables (room items, defeated NPCs) is discarded.
func (w *World) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dir == "" {
		return errors.New("world was not loaded from a directory")
	}
	w.load()
	return nil
}

func (w *World) load() {
	w.loadProblems = nil

	models := w.readTable(TableFeatureModels)
	rawLocations := w.readTable(TableLocations)
	w.applyFeatureModels(rawLocations, models)

	next := NewWorld()
	next.Locations = decodeTable[*Location](w, TableLocations, rawLocations)
	next.Items = decodeTable[actor.Item](w, TableItems, w.readTable(TableItems))
	next.Species = decodeTable[actor.Species](w, TableSpecies, w.readTable(TableSpecies))
	next.Classes = decodeTable[actor.Class](w, TableClasses, w.readTable(TableClasses))
	next.ZoneLayouts = decodeTable[*ZoneLayout](w, TableZoneLayouts, w.readTable(TableZoneLayouts))
	next.CityMaps = decodeTable[*CityMap](w, TableCityMaps, w.readTable(TableCityMaps))
	next.normalize()

	w.Locations = next.Locations
	w.Items = next.Items
	w.Species = next.Species
	w.Classes = next.Classes
	w.ZoneLayouts = next.ZoneLayouts
	w.CityMaps = next.CityMaps

	if len(w.Locations) == 0 {
		w.problem("no locations loaded", "dir", w.dir)
	}

	w.logger.Debug("Content loaded",
		"dir", w.dir,
		"locations", len(w.Locations),
		"items", len(w.Items),
		"species", len(w.Species),
		"classes", len(w.Classes),
		"city_maps", len(w.CityMaps))
}

// problem logs a load warning and keeps it for Validate.
func (w *World) problem(msg string, args ...any) {
	w.logger.Warn("Content "+msg, args...)
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	w.loadProblems = append(w.loadProblems, b.String())
}

// readTable finds and decodes a table into a generic map. JSON and YAML both
// land in the same shape so that overlays and typed decoding share one path.
func (w *World) readTable(name string) map[string]any {
	for _, ext := range tableExtensions {
		path := filepath.Join(w.dir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			w.problem("table unreadable, using empty table", "path", path, "error", err)
			return map[string]any{}
		}

		table := map[string]any{}
		if ext == ".json" {
			err = json.Unmarshal(data, &table)
		} else {
			err = yaml.Unmarshal(data, &table)
		}
		if err != nil {
			w.problem("table malformed, using empty table", "path", path, "error", err)
			return map[string]any{}
		}
		return table
	}
	w.logger.Warn("Content table not found, using empty table", "table", name, "dir", w.dir)
	return map[string]any{}
}

// decodeTable converts a generic table into typed records one at a time, so
// a bad record only costs itself.
func decodeTable[T any](w *World, name string, raw map[string]any) map[string]T {
	out := make(map[string]T, len(raw))
	for id, rec := range raw {
		data, err := json.Marshal(rec)
		if err == nil {
			var v T
			if err = json.Unmarshal(data, &v); err == nil {
				out[id] = v
				continue
			}
		}
		w.problem("record skipped", "table", name, "id", id, "error", err)
	}
	return out
}

// applyFeatureModels expands features that reference a model. The instance
// is overlaid on a deep copy of the model so instances never share state. A
// feature naming an unknown model keeps only its own fields.
func (w *World) applyFeatureModels(locations, models map[string]any) {
	for locID, rawLoc := range locations {
		loc, ok := rawLoc.(map[string]any)
		if !ok {
			continue
		}
		features, ok := loc["features"].(map[string]any)
		if !ok {
			continue
		}
		for featureID, rawFeature := range features {
			feature, ok := rawFeature.(map[string]any)
			if !ok {
				continue
			}
			modelID, ok := feature["model"].(string)
			if !ok {
				continue
			}
			model, ok := models[modelID].(map[string]any)
			if !ok {
				w.problem("unknown feature model", "location", locID, "feature", featureID, "model", modelID)
				delete(feature, "model")
				continue
			}
			merged := overlay(deepCopy(model).(map[string]any), feature)
			delete(merged, "model")
			features[featureID] = merged
		}
	}
}

// overlay merges src into dst recursively. Nested maps merge; every other
// value in src replaces the one in dst.
func overlay(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				dst[k] = overlay(dm, sm)
				continue
			}
		}
		dst[k] = deepCopy(v)
	}
	return dst
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}
