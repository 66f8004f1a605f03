// Package scene builds a read-only view of the player's surroundings for
// every front end: the JSON API, the websocket stream and the console.
package scene

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/content"
)

// StarterHint is shown in the start room until the starter crate is opened.
const StarterHint = "Perhaps you should open the worn crate."

var titleCaser = cases.Title(language.English)

// DisplayName turns an ID like "worn_crate" into "Worn Crate".
func DisplayName(id string) string {
	return titleCaser.String(actor.HumanizeID(id))
}

// Scene is everything a front end needs to draw one frame.
type Scene struct {
	Active       bool          `json:"active"`
	Mode         string        `json:"mode"`
	LocationID   string        `json:"location_id"`
	LocationName string        `json:"location_name"`
	Zone         string        `json:"zone,omitempty"`
	Description  string        `json:"description"`
	Hint         string        `json:"hint,omitempty"`
	Exits        []string      `json:"exits"`
	Items        []ItemView    `json:"items"`
	NPCs         []NPCView     `json:"npcs"`
	Features     []FeatureView `json:"features"`
	CanSave      bool          `json:"can_save"`
	City         *CityView     `json:"city,omitempty"`
	Combat       *CombatView   `json:"combat,omitempty"`
	Dialogue     *DialogueView `json:"dialogue,omitempty"`
	Player       PlayerView    `json:"player"`
}

type ItemView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

type NPCView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Hostile     bool   `json:"hostile,omitempty"`
}

type FeatureView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Actions     []string `json:"actions,omitempty"`
}

type CityView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CellName string `json:"cell_name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type CombatView struct {
	NPCID string `json:"npc_id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
}

type DialogueView struct {
	NPCID   string               `json:"npc_id"`
	Name    string               `json:"name"`
	Options []DialogueOptionView `json:"options"`
}

type DialogueOptionView struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type MoveView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cooldown    int    `json:"cooldown"`
}

type PlayerView struct {
	Name          string            `json:"name"`
	Gender        string            `json:"gender"`
	Species       string            `json:"species"`
	Class         string            `json:"class"`
	HP            int               `json:"hp"`
	MaxHP         int               `json:"max_hp"`
	AttackPower   int               `json:"attack_power"`
	SpecialPower  int               `json:"special_power"`
	Level         int               `json:"level"`
	XP            int               `json:"xp"`
	XPToNextLevel int               `json:"xp_to_next_level"`
	Coins         int               `json:"coins"`
	Inventory     []ItemView        `json:"inventory"`
	Equipment     map[string]string `json:"equipment"` // Slot → item name, empty when free
	SpecialMoves  []MoveView        `json:"special_moves,omitempty"`
}

// Build assembles the scene. It never mutates world or player; an unknown
// current location is shown as the start location.
func Build(w *content.World, p *actor.Player) *Scene {
	sc := &Scene{
		Active:   p.GameActive,
		Mode:     p.Mode(),
		Exits:    []string{},
		Items:    []ItemView{},
		NPCs:     []NPCView{},
		Features: []FeatureView{},
		Player:   buildPlayer(w, p),
	}

	loc, ok := w.Location(p.CurrentLocationID)
	if !ok {
		loc, ok = w.Location(w.StartLocation())
	}
	if !ok {
		sc.LocationName = "Nowhere"
		sc.Description = "You are lost in a featureless void."
		return sc
	}

	sc.LocationID = loc.ID
	sc.LocationName = loc.Name
	sc.Zone = loc.Zone
	sc.Description = loc.Description

	if city, ok := w.City(p.CurrentCityID); ok && p.InCity() {
		buildCity(sc, city, p)
	} else {
		sc.Exits = slices.Sorted(maps.Keys(loc.Exits))
		sc.Items = countItems(w.Items, loc.Items)
		for _, id := range slices.Sorted(maps.Keys(loc.NPCs)) {
			npc := loc.NPCs[id]
			sc.NPCs = append(sc.NPCs, NPCView{ID: id, Name: npc.Name, Description: npc.Description, Hostile: npc.Hostile})
		}
		for _, id := range slices.Sorted(maps.Keys(loc.Features)) {
			f := loc.Features[id]
			name := f.Name
			if name == "" {
				name = DisplayName(id)
			}
			sc.Features = append(sc.Features, FeatureView{ID: id, Name: name, Description: f.CurrentDescription(), Actions: f.Verbs()})
		}
	}

	sc.CanSave = p.GameActive && w.IsCityZone(sc.Zone)
	if loc.ID == w.StartLocation() && p.GameActive && !p.Flag("found_starter_items") {
		sc.Hint = StarterHint
	}

	if p.InCombat() {
		if npc, ok := loc.NPCs[p.CombatTargetID]; ok {
			sc.Combat = &CombatView{NPCID: p.CombatTargetID, Name: npc.Name, HP: npc.HP, MaxHP: npc.MaxHP}
		}
	}
	if p.InDialogue() {
		d := &DialogueView{NPCID: p.DialogueNPCID, Name: DisplayName(p.DialogueNPCID)}
		if npc, ok := loc.NPCs[p.DialogueNPCID]; ok {
			d.Name = npc.Name
		}
		for _, key := range slices.Sorted(maps.Keys(p.DialogueOptionsPending)) {
			d.Options = append(d.Options, DialogueOptionView{Key: key, Text: p.DialogueOptionsPending[key].Text})
		}
		sc.Dialogue = d
	}
	return sc
}

func buildCity(sc *Scene, city *content.CityMap, p *actor.Player) {
	at := content.Point{X: p.CityX, Y: p.CityY}
	cell, _ := city.Cell(at)
	sc.Zone = city.Zone
	sc.LocationName = city.Name
	sc.Description = cell.Description
	sc.City = &CityView{
		ID:       city.ID,
		Name:     city.Name,
		CellName: cell.Name,
		X:        at.X,
		Y:        at.Y,
		Width:    city.Width(),
		Height:   city.Height(),
	}
	for _, dir := range content.CityDirections {
		next := at.Step(dir)
		if c, ok := city.Cell(next); ok && !c.Impassable {
			sc.Exits = append(sc.Exits, dir)
		}
	}
}

func buildPlayer(w *content.World, p *actor.Player) PlayerView {
	pv := PlayerView{
		Name:          p.Name,
		Gender:        p.Gender,
		Species:       w.SpeciesName(p.Species),
		Class:         w.ClassName(p.Class),
		HP:            p.HP,
		MaxHP:         p.MaxHP,
		AttackPower:   p.AttackPower,
		SpecialPower:  p.SpecialPower,
		Level:         p.Level,
		XP:            p.XP,
		XPToNextLevel: p.XPToNextLevel,
		Coins:         p.Coins,
		Inventory:     countItems(w.Items, p.Inventory),
		Equipment:     make(map[string]string, len(actor.EquipmentSlots)),
	}
	for _, slot := range actor.EquipmentSlots {
		if id := p.Equipment[slot]; id != "" {
			pv.Equipment[slot] = w.Items.Name(id)
		} else {
			pv.Equipment[slot] = ""
		}
	}
	for _, id := range slices.Sorted(maps.Keys(p.SpecialMoves)) {
		m := p.SpecialMoves[id]
		pv.SpecialMoves = append(pv.SpecialMoves, MoveView{ID: id, Name: m.Name, Description: m.Description, Cooldown: p.SpecialCooldowns[id]})
	}
	return pv
}

// countItems groups duplicate IDs, keeping first-seen order.
func countItems(catalog actor.ItemCatalog, ids []string) []ItemView {
	out := []ItemView{}
	index := map[string]int{}
	for _, id := range ids {
		if i, ok := index[id]; ok {
			out[i].Count++
			continue
		}
		index[id] = len(out)
		out = append(out, ItemView{ID: id, Name: catalog.Name(id), Count: 1})
	}
	return out
}

// joinNames lists names as "a, b and c".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
