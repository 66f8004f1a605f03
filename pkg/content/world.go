package content

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jwebster45206/textland/pkg/actor"
)

// DefaultStartLocation is where new characters begin and where players with
// an unknown location are recovered to.
const DefaultStartLocation = "generic_start_room"

// DefaultCityZones are the zones where saving is allowed.
var DefaultCityZones = []string{"Eldoria", "Riverford"}

// World is the loaded content for one game: the mutable location graph plus
// immutable catalogs. Each engine owns its own World.
type World struct {
	Locations   map[string]*Location
	Items       actor.ItemCatalog
	Species     map[string]actor.Species
	Classes     map[string]actor.Class
	ZoneLayouts map[string]*ZoneLayout
	CityMaps    map[string]*CityMap

	startLocation string
	cityZones     map[string]bool
	dir           string
	logger        *slog.Logger
	loadProblems  []string
	mu            sync.Mutex // Serializes Reload
}

// Option configures a World.
type Option func(*World)

// WithStartLocation overrides DefaultStartLocation.
func WithStartLocation(id string) Option {
	return func(w *World) {
		if id != "" {
			w.startLocation = id
		}
	}
}

// WithCityZones overrides DefaultCityZones.
func WithCityZones(zones []string) Option {
	return func(w *World) {
		if len(zones) == 0 {
			return
		}
		w.cityZones = make(map[string]bool, len(zones))
		for _, z := range zones {
			w.cityZones[strings.TrimSpace(z)] = true
		}
	}
}

// NewWorld returns an empty world. Load fills one from disk; tests build
// worlds by hand.
func NewWorld(opts ...Option) *World {
	w := &World{
		Locations:     map[string]*Location{},
		Items:         actor.ItemCatalog{},
		Species:       map[string]actor.Species{},
		Classes:       map[string]actor.Class{},
		ZoneLayouts:   map[string]*ZoneLayout{},
		CityMaps:      map[string]*CityMap{},
		startLocation: DefaultStartLocation,
		logger:        slog.Default(),
	}
	WithCityZones(DefaultCityZones)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// StartLocation returns the configured start location ID.
func (w *World) StartLocation() string { return w.startLocation }

// Location looks up a location by ID.
func (w *World) Location(id string) (*Location, bool) {
	loc, ok := w.Locations[id]
	return loc, ok
}

// IsCityZone reports whether zone allows saving.
func (w *World) IsCityZone(zone string) bool {
	return zone != "" && w.cityZones[zone]
}

// CityZones lists the save-allowed zones.
func (w *World) CityZones() []string {
	return slices.Sorted(maps.Keys(w.cityZones))
}

// City looks up a city map by ID.
func (w *World) City(id string) (*CityMap, bool) {
	c, ok := w.CityMaps[id]
	return c, ok
}

// CityEntryAt returns the city and coordinate entered from a zone location.
func (w *World) CityEntryAt(locationID string) (*CityMap, Point, bool) {
	for _, id := range slices.Sorted(maps.Keys(w.CityMaps)) {
		c := w.CityMaps[id]
		if p, ok := c.Entries[locationID]; ok {
			return c, p, true
		}
	}
	return nil, Point{}, false
}

// SpeciesName returns the species display name or "N/A".
func (w *World) SpeciesName(id string) string {
	if s, ok := w.Species[id]; ok && s.Name != "" {
		return s.Name
	}
	return "N/A"
}

// ClassName returns the class display name or "N/A".
func (w *World) ClassName(id string) string {
	if c, ok := w.Classes[id]; ok && c.Name != "" {
		return c.Name
	}
	return "N/A"
}

// FindSpecies resolves input to a species by ID or display name.
func (w *World) FindSpecies(input string) (actor.Species, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, id := range slices.Sorted(maps.Keys(w.Species)) {
		if s := w.Species[id]; id == input || strings.ToLower(s.Name) == input {
			return s, true
		}
	}
	return actor.Species{}, false
}

// FindClass resolves input to a class by ID or display name.
func (w *World) FindClass(input string) (actor.Class, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, id := range slices.Sorted(maps.Keys(w.Classes)) {
		if c := w.Classes[id]; id == input || strings.ToLower(c.Name) == input {
			return c, true
		}
	}
	return actor.Class{}, false
}

// ZoneLocations lists locations in a zone ordered by ID.
func (w *World) ZoneLocations(zone string) []*Location {
	var out []*Location
	for _, id := range slices.Sorted(maps.Keys(w.Locations)) {
		if loc := w.Locations[id]; loc.Zone == zone {
			out = append(out, loc)
		}
	}
	return out
}

// normalize fills IDs and defaults after decoding.
func (w *World) normalize() {
	for id, loc := range w.Locations {
		if loc == nil {
			delete(w.Locations, id)
			continue
		}
		loc.ID = id
		if loc.Name == "" {
			loc.Name = actor.HumanizeID(id)
		}
		if loc.Exits == nil {
			loc.Exits = map[string]string{}
		}
		if loc.NPCs == nil {
			loc.NPCs = map[string]*actor.NPC{}
		}
		for npcID, npc := range loc.NPCs {
			if npc == nil {
				delete(loc.NPCs, npcID)
				continue
			}
			npc.Normalize(npcID)
		}
		if loc.Features == nil {
			loc.Features = map[string]*Feature{}
		}
		for fid, f := range loc.Features {
			if f == nil {
				delete(loc.Features, fid)
			}
		}
	}
	for id, item := range w.Items {
		item.ID = id
		w.Items[id] = item
	}
	for id, s := range w.Species {
		s.ID = id
		w.Species[id] = s
	}
	for id, c := range w.Classes {
		c.ID = id
		w.Classes[id] = c
	}
	for id, c := range w.CityMaps {
		c.ID = id
		if c.Entries == nil {
			c.Entries = map[string]Point{}
		}
	}
}
