package content

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/textland/pkg/actor"
)

// Validate checks cross-references between tables and returns one message
// per problem found, including anything skipped while loading. An empty
// result means the content is consistent.
func (w *World) Validate() []string {
	problems := slices.Clone(w.loadProblems)
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	checkItem := func(where, itemID string) {
		if _, ok := w.Items[itemID]; !ok {
			add("%s: unknown item %q", where, itemID)
		}
	}

	if _, ok := w.Locations[w.startLocation]; !ok {
		add("start location %q does not exist", w.startLocation)
	}

	for _, locID := range slices.Sorted(maps.Keys(w.Locations)) {
		loc := w.Locations[locID]
		for dir, dest := range loc.Exits {
			if _, ok := w.Locations[dest]; !ok {
				add("location %s: exit %s leads to unknown location %q", locID, dir, dest)
			}
		}
		for _, itemID := range loc.Items {
			checkItem("location "+locID, itemID)
		}
		if loc.CityEntry != "" {
			c, ok := w.CityMaps[loc.CityEntry]
			switch {
			case !ok:
				add("location %s: unknown city map %q", locID, loc.CityEntry)
			case !hasEntry(c, locID):
				add("location %s: city map %s has no entry for it", locID, loc.CityEntry)
			}
		}
		for _, npcID := range slices.Sorted(maps.Keys(loc.NPCs)) {
			npc := loc.NPCs[npcID]
			where := fmt.Sprintf("location %s npc %s", locID, npcID)
			for _, itemID := range npc.Loot {
				checkItem(where+" loot", itemID)
			}
			if npc.QuestItemNeeded != "" {
				checkItem(where+" quest", npc.QuestItemNeeded)
			}
			if npc.QuestRewardItem != "" {
				checkItem(where+" reward", npc.QuestRewardItem)
			}
			for itemID := range npc.Wares {
				checkItem(where+" wares", itemID)
			}
		}
		for _, fid := range slices.Sorted(maps.Keys(loc.Features)) {
			f := loc.Features[fid]
			where := fmt.Sprintf("location %s feature %s", locID, fid)
			if f.KeyNeeded != "" {
				checkItem(where+" key", f.KeyNeeded)
			}
			if f.ContainsItemOnUnlock != "" {
				checkItem(where+" contents", f.ContainsItemOnUnlock)
			}
			for _, itemID := range f.ContainsOnOpen {
				checkItem(where+" contents", itemID)
			}
			for _, verb := range f.Verbs() {
				problems = append(problems, w.validateAction(where+" action "+verb, f.Actions[verb])...)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(w.Items)) {
		if use := w.Items[id].Use; use != nil {
			problems = append(problems, w.validateAction("item "+id+" use", *use)...)
		}
	}

	for _, id := range slices.Sorted(maps.Keys(w.Classes)) {
		for _, itemID := range w.Classes[id].StarterItems {
			checkItem("class "+id+" starter items", itemID)
		}
	}

	for _, zone := range slices.Sorted(maps.Keys(w.ZoneLayouts)) {
		for ch, locID := range w.ZoneLayouts[zone].Mapping {
			if _, ok := w.Locations[locID]; !ok {
				add("zone layout %s: symbol %s maps to unknown location %q", zone, ch, locID)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(w.CityMaps)) {
		c := w.CityMaps[id]
		if c.Height() == 0 {
			add("city map %s: no rows", id)
		}
		for locID, p := range c.Entries {
			if _, ok := w.Locations[locID]; !ok {
				add("city map %s: entry from unknown location %q", id, locID)
			}
			cell, ok := c.Cell(p)
			switch {
			case !ok:
				add("city map %s: entry for %s at (%d,%d) is off the grid", id, locID, p.X, p.Y)
			case cell.Impassable:
				add("city map %s: entry for %s at (%d,%d) is impassable", id, locID, p.X, p.Y)
			}
		}
	}
	return problems
}

func (w *World) validateAction(where string, a actor.Action) []string {
	var problems []string
	if len(a.Outcomes) == 0 {
		problems = append(problems, where+": no outcomes")
	}
	if len(a.Probabilities) > 0 && len(a.Probabilities) != len(a.Outcomes) {
		problems = append(problems, fmt.Sprintf("%s: %d probabilities for %d outcomes", where, len(a.Probabilities), len(a.Outcomes)))
	}
	for _, o := range a.Outcomes {
		if o.Type == actor.OutcomeItem {
			if _, ok := w.Items[o.ItemID]; !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown item %q", where, o.ItemID))
			}
		}
	}
	return problems
}

func hasEntry(c *CityMap, locID string) bool {
	_, ok := c.Entries[locID]
	return ok
}
