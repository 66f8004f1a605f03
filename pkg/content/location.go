package content

import (
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/textland/pkg/actor"
)

// Location is a node in the zone graph.
type Location struct {
	ID           string                `json:"id,omitempty"`
	Name         string                `json:"name"`
	Zone         string                `json:"zone,omitempty"`
	Description  string                `json:"description,omitempty"`
	Exits        map[string]string     `json:"exits,omitempty"`         // Direction → Location ID
	BlockedExits map[string]string     `json:"blocked_exits,omitempty"` // Direction → Reason for blocking
	Items        []string              `json:"items,omitempty"`         // Item IDs lying here
	NPCs         map[string]*actor.NPC `json:"npcs,omitempty"`
	Features     map[string]*Feature   `json:"features,omitempty"`
	CityEntry    string                `json:"city_entry,omitempty"` // City map entered when arriving here
}

// RemoveItem takes one copy of itemID off the floor.
func (l *Location) RemoveItem(itemID string) bool {
	i := slices.Index(l.Items, itemID)
	if i < 0 {
		return false
	}
	l.Items = slices.Delete(l.Items, i, i+1)
	return true
}

// FindNPC resolves player input to an NPC ID by name or ID.
func (l *Location) FindNPC(input string) (string, *actor.NPC, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, id := range slices.Sorted(maps.Keys(l.NPCs)) {
		npc := l.NPCs[id]
		if input == strings.ToLower(npc.Name) || input == id || input == actor.HumanizeID(id) {
			return id, npc, true
		}
	}
	return "", nil, false
}

// FindFeature resolves player input to a feature ID by name or ID.
func (l *Location) FindFeature(input string) (string, *Feature, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, id := range slices.Sorted(maps.Keys(l.Features)) {
		f := l.Features[id]
		if input == id || input == actor.HumanizeID(id) || (f.Name != "" && input == strings.ToLower(f.Name)) {
			return id, f, true
		}
	}
	return "", nil, false
}

// Feature is an interactable fixture in a location: a chest, a crate, a
// patch of mushrooms.
type Feature struct {
	Name                string `json:"name,omitempty"`
	Description         string `json:"description,omitempty"`
	DescriptionLocked   string `json:"description_locked,omitempty"`
	DescriptionUnlocked string `json:"description_unlocked,omitempty"`
	DescriptionClosed   string `json:"description_closed,omitempty"`
	DescriptionOpened   string `json:"description_opened,omitempty"`

	Locked bool `json:"locked,omitempty"`
	Closed bool `json:"closed,omitempty"`

	KeyNeeded            string   `json:"key_needed,omitempty"`
	UnlockMessage        string   `json:"unlock_message,omitempty"`
	ContainsItemOnUnlock string   `json:"contains_item_on_unlock,omitempty"`
	ContainsOnOpen       []string `json:"contains_on_open,omitempty"`
	SetsFlag             string   `json:"sets_flag,omitempty"` // Player flag raised when the container is opened

	Actions map[string]actor.Action `json:"actions,omitempty"` // Verb → outcome pool
}

// CurrentDescription picks the description matching the feature's state.
func (f *Feature) CurrentDescription() string {
	switch {
	case f.KeyNeeded != "" && f.Locked && f.DescriptionLocked != "":
		return f.DescriptionLocked
	case f.KeyNeeded != "" && !f.Locked && f.DescriptionUnlocked != "":
		return f.DescriptionUnlocked
	case f.Closed && f.DescriptionClosed != "":
		return f.DescriptionClosed
	case !f.Closed && f.DescriptionOpened != "":
		return f.DescriptionOpened
	}
	return f.Description
}

// Verbs lists the feature's action verbs in sorted order.
func (f *Feature) Verbs() []string {
	return slices.Sorted(maps.Keys(f.Actions))
}
