package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Map types a player can be navigating.
const (
	MapZone = "zone"
	MapCity = "city"
)

// Starting values for a freshly created character.
const (
	DefaultName          = "Adventurer"
	DefaultGender        = "Unspecified"
	StartingXPToNext     = 100
	LevelUpMaxHPGain     = 10
	LevelUpAttackGain    = 2
	LevelUpThresholdRate = 1.5
	MaxNameLength        = 20
)

// StartingInventory is what every new character carries.
var StartingInventory = []string{"simple_knife", "blank_map_scroll"}

// EquipmentSlots lists every slot in display order.
var EquipmentSlots = []string{
	"head", "shoulders", "chest", "hands", "legs", "feet",
	"main_hand", "off_hand", "neck", "back", "trinket1", "trinket2",
}

// SlotTrinket is the item equip_slot that fits either trinket slot.
const SlotTrinket = "trinket"

var validName = regexp.MustCompile(`^[a-zA-Z '-]+$`)

// Name validation errors. Their text is shown to the player.
var (
	ErrNameEmpty    = errors.New("name cannot be empty")
	ErrNameTooLong  = fmt.Errorf("name cannot be longer than %d characters", MaxNameLength)
	ErrNameInvalid  = errors.New("name can only contain letters, spaces, hyphens, and apostrophes")
	ErrNameAllDigit = errors.New("name cannot be only numbers")
)

// ValidateName checks a proposed character name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrNameEmpty
	case len(name) > MaxNameLength:
		return ErrNameTooLong
	case isAllDigits(name):
		return ErrNameAllDigit
	case !validName.MatchString(name):
		return ErrNameInvalid
	}
	return nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// LocationSet is a set of location IDs. It serializes as a sorted list.
type LocationSet map[string]struct{}

// Add inserts id.
func (s LocationSet) Add(id string) { s[id] = struct{}{} }

// Has reports membership.
func (s LocationSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s LocationSet) MarshalJSON() ([]byte, error) {
	ids := slices.Sorted(maps.Keys(s))
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (s *LocationSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(LocationSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	*s = set
	return nil
}

// Player is the single player character. Its JSON form is the save file.
type Player struct {
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	Species string `json:"species,omitempty"`
	Class   string `json:"class,omitempty"`

	CurrentLocationID  string `json:"current_location_id"`
	CurrentMapType     string `json:"current_map_type"`
	CurrentCityID      string `json:"current_city_id,omitempty"`
	CityX              int    `json:"city_x"`
	CityY              int    `json:"city_y"`
	LastZoneLocationID string `json:"last_zone_location_id,omitempty"`

	GameActive bool `json:"game_active"`

	BaseMaxHP       int `json:"base_max_hp"`
	BaseAttackPower int `json:"base_attack_power"`
	HP              int `json:"hp"`
	MaxHP           int `json:"max_hp"`
	AttackPower     int `json:"attack_power"`
	SpecialPower    int `json:"special_power"`

	SpecialMoves     map[string]SpecialMove `json:"special_moves"`
	SpecialCooldowns map[string]int         `json:"special_cooldowns"`

	CombatTargetID         string                    `json:"combat_target_id,omitempty"`
	IsDeflecting           bool                      `json:"is_deflecting"`
	DialogueNPCID          string                    `json:"dialogue_npc_id,omitempty"`
	DialogueOptionsPending map[string]DialogueOption `json:"dialogue_options_pending,omitempty"`

	Inventory        []string          `json:"inventory"`
	Equipment        map[string]string `json:"equipment"`
	Coins            int               `json:"coins"`
	Level            int               `json:"level"`
	XP               int               `json:"xp"`
	XPToNextLevel    int               `json:"xp_to_next_level"`
	Flags            map[string]any    `json:"flags"`
	VisitedLocations LocationSet       `json:"visited_locations"`
	Preferences      map[string]bool   `json:"preferences,omitempty"`
}

// NewDefaultPlayer returns an inactive player with every field at its
// starting value. Loaded saves are decoded on top of it.
func NewDefaultPlayer() *Player {
	p := &Player{
		Name:             DefaultName,
		Gender:           DefaultGender,
		CurrentMapType:   MapZone,
		SpecialMoves:     map[string]SpecialMove{},
		SpecialCooldowns: map[string]int{},
		Inventory:        []string{},
		Equipment:        make(map[string]string, len(EquipmentSlots)),
		Level:            1,
		XPToNextLevel:    StartingXPToNext,
		Flags:            map[string]any{},
		VisitedLocations: LocationSet{},
		Preferences:      map[string]bool{},
	}
	for _, slot := range EquipmentSlots {
		p.Equipment[slot] = ""
	}
	return p
}

// NewPlayer builds a fresh character from a species and class. The caller
// validates the name and places the player at a location.
func NewPlayer(name, gender string, species Species, class Class) *Player {
	p := NewDefaultPlayer()
	p.Name = strings.TrimSpace(name)
	if g := strings.TrimSpace(gender); g != "" {
		p.Gender = g
	}
	p.Species = species.ID
	p.Class = class.ID

	p.BaseMaxHP = class.BaseStats.HP + species.StatBonuses.HP
	p.BaseAttackPower = class.BaseStats.AttackPower + species.StatBonuses.AttackPower
	p.SpecialPower = class.BaseStats.SpecialPower + species.StatBonuses.SpecialPower
	p.MaxHP = p.BaseMaxHP
	p.AttackPower = p.BaseAttackPower
	p.HP = p.MaxHP

	maps.Copy(p.SpecialMoves, class.SpecialMoves)
	for id := range p.SpecialMoves {
		p.SpecialCooldowns[id] = 0
	}
	p.Inventory = append(p.Inventory, StartingInventory...)
	p.Flags["found_starter_items"] = false
	p.GameActive = true
	return p
}

// UnmarshalPlayer decodes a save over the default player so that missing
// fields keep their starting values.
func UnmarshalPlayer(data []byte) (*Player, error) {
	p := NewDefaultPlayer()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	p.normalize()
	return p, nil
}

func (p *Player) normalize() {
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Gender == "" {
		p.Gender = DefaultGender
	}
	if p.CurrentMapType != MapCity {
		p.CurrentMapType = MapZone
	}
	if p.SpecialMoves == nil {
		p.SpecialMoves = map[string]SpecialMove{}
	}
	if p.SpecialCooldowns == nil {
		p.SpecialCooldowns = map[string]int{}
	}
	for id := range p.SpecialMoves {
		if _, ok := p.SpecialCooldowns[id]; !ok {
			p.SpecialCooldowns[id] = 0
		}
	}
	if p.Inventory == nil {
		p.Inventory = []string{}
	}
	if p.Equipment == nil {
		p.Equipment = map[string]string{}
	}
	for _, slot := range EquipmentSlots {
		if _, ok := p.Equipment[slot]; !ok {
			p.Equipment[slot] = ""
		}
	}
	if p.Flags == nil {
		p.Flags = map[string]any{}
	}
	if p.VisitedLocations == nil {
		p.VisitedLocations = LocationSet{}
	}
	if p.Preferences == nil {
		p.Preferences = map[string]bool{}
	}
	if p.Level < 1 {
		p.Level = 1
	}
	if p.XPToNextLevel <= 0 {
		p.XPToNextLevel = StartingXPToNext
	}
	// Saves written before base stats were tracked only carry derived ones.
	if p.BaseMaxHP == 0 {
		p.BaseMaxHP = p.MaxHP
	}
	if p.BaseAttackPower == 0 {
		p.BaseAttackPower = p.AttackPower
	}
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// Flag returns a boolean flag, false when unset or not a bool.
func (p *Player) Flag(name string) bool {
	v, _ := p.Flags[name].(bool)
	return v
}

// SetFlag sets a flag value.
func (p *Player) SetFlag(name string, value any) {
	if p.Flags == nil {
		p.Flags = map[string]any{}
	}
	p.Flags[name] = value
}

// MoveTo sets the current zone location and records it as visited.
func (p *Player) MoveTo(locationID string) {
	p.CurrentLocationID = locationID
	p.VisitedLocations.Add(locationID)
}

// InCity reports whether the player is navigating a city grid.
func (p *Player) InCity() bool {
	return p.CurrentMapType == MapCity && p.CurrentCityID != ""
}

// EnterCity switches to city-grid navigation at (x, y), remembering the zone
// location to return to.
func (p *Player) EnterCity(cityID string, x, y int) {
	p.LastZoneLocationID = p.CurrentLocationID
	p.CurrentMapType = MapCity
	p.CurrentCityID = cityID
	p.CityX, p.CityY = x, y
}

// ExitCity returns to the zone location recorded on entry.
func (p *Player) ExitCity() {
	if p.LastZoneLocationID != "" {
		p.CurrentLocationID = p.LastZoneLocationID
	}
	p.CurrentMapType = MapZone
	p.CurrentCityID = ""
	p.CityX, p.CityY = 0, 0
}

// InCombat reports whether a combat target is set.
func (p *Player) InCombat() bool { return p.CombatTargetID != "" }

// InDialogue reports whether a conversation is open.
func (p *Player) InDialogue() bool { return p.DialogueNPCID != "" }

// Mode names the interaction mode: "combat", "dialogue" or "exploration".
func (p *Player) Mode() string {
	switch {
	case p.InCombat():
		return "combat"
	case p.InDialogue():
		return "dialogue"
	default:
		return "exploration"
	}
}

// EnterCombat targets an NPC. Combat and dialogue are exclusive.
func (p *Player) EnterCombat(npcID string) {
	p.EndDialogue()
	p.CombatTargetID = npcID
	p.IsDeflecting = false
}

// LeaveCombat clears the combat target and deflect stance.
func (p *Player) LeaveCombat() {
	p.CombatTargetID = ""
	p.IsDeflecting = false
}

// StartDialogue opens a conversation with pending options.
func (p *Player) StartDialogue(npcID string, options map[string]DialogueOption) {
	p.CombatTargetID = ""
	p.DialogueNPCID = npcID
	p.DialogueOptionsPending = maps.Clone(options)
}

// EndDialogue clears the conversation.
func (p *Player) EndDialogue() {
	p.DialogueNPCID = ""
	p.DialogueOptionsPending = nil
}

// TakeDamage reduces HP, floored at 0. A deflecting player takes half
// (rounded down) and the stance is consumed. Returns the damage applied.
func (p *Player) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if p.IsDeflecting {
		amount /= 2
		p.IsDeflecting = false
	}
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
	return amount
}

// Heal restores HP up to MaxHP and returns the amount actually healed.
func (p *Player) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := p.HP
	p.HP += amount
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return p.HP - before
}

// IsDefeated returns true once HP reaches 0.
func (p *Player) IsDefeated() bool { return p.HP <= 0 }

// HandleDefeat ends the game and clears every transient mode.
func (p *Player) HandleDefeat() {
	p.GameActive = false
	p.LeaveCombat()
	p.EndDialogue()
}

// AddItem appends an item ID to the inventory.
func (p *Player) AddItem(itemID string) {
	p.Inventory = append(p.Inventory, itemID)
}

// RemoveItem removes one copy of itemID and reports whether it was present.
func (p *Player) RemoveItem(itemID string) bool {
	i := slices.Index(p.Inventory, itemID)
	if i < 0 {
		return false
	}
	p.Inventory = slices.Delete(p.Inventory, i, i+1)
	return true
}

// HasItem reports whether the inventory holds itemID.
func (p *Player) HasItem(itemID string) bool {
	return slices.Contains(p.Inventory, itemID)
}

// AddCoins adds currency; non-positive amounts are ignored.
func (p *Player) AddCoins(amount int) {
	if amount > 0 {
		p.Coins += amount
	}
}

// SpendCoins deducts amount if affordable.
func (p *Player) SpendCoins(amount int) bool {
	if amount < 0 || amount > p.Coins {
		return false
	}
	p.Coins -= amount
	return true
}

// RecalculateStats derives MaxHP and AttackPower from base stats plus the
// bonuses of equipped items, then clamps HP.
func (p *Player) RecalculateStats(items ItemCatalog) {
	maxHP, attack := p.BaseMaxHP, p.BaseAttackPower
	for _, itemID := range p.Equipment {
		if itemID == "" {
			continue
		}
		if item, ok := items.Lookup(itemID); ok {
			maxHP += item.MaxHPBonus()
			attack += item.AttackBonus()
		}
	}
	p.MaxHP = maxHP
	p.AttackPower = attack
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// ResolveSlot picks the concrete slot for an item. An explicit slot must be
// compatible with the item; trinkets prefer the first free trinket slot.
func (p *Player) ResolveSlot(item Item, slot string) (string, bool) {
	slot = strings.ToLower(strings.TrimSpace(slot))
	want := item.EquipSlot
	if want == "" {
		return "", false
	}
	if want == SlotTrinket {
		switch slot {
		case "trinket1", "trinket2":
			return slot, true
		case "", SlotTrinket:
			if p.Equipment["trinket1"] != "" && p.Equipment["trinket2"] == "" {
				return "trinket2", true
			}
			return "trinket1", true
		}
		return "", false
	}
	if slot != "" && slot != want {
		return "", false
	}
	if _, ok := p.Equipment[want]; !ok {
		return "", false
	}
	return want, true
}

// EquipItem moves an inventory item into a slot, swapping any occupant back
// into the inventory. On failure nothing changes and ok is false.
func (p *Player) EquipItem(itemID, slot string, items ItemCatalog) (msg string, ok bool) {
	item, found := items.Lookup(itemID)
	if !found {
		return fmt.Sprintf("You don't know what %s is.", HumanizeID(itemID)), false
	}
	if !p.HasItem(itemID) {
		return fmt.Sprintf("You don't have %s.", items.Name(itemID)), false
	}
	if item.EquipSlot == "" {
		return fmt.Sprintf("You can't equip %s.", items.Name(itemID)), false
	}
	target, valid := p.ResolveSlot(item, slot)
	if !valid {
		if slot == "" {
			slot = item.EquipSlot
		}
		return fmt.Sprintf("%s can't be worn in the %s slot.", items.Name(itemID), slot), false
	}

	var b strings.Builder
	if prev := p.Equipment[target]; prev != "" {
		p.AddItem(prev)
		fmt.Fprintf(&b, "You unequip %s. ", items.Name(prev))
	}
	p.RemoveItem(itemID)
	p.Equipment[target] = itemID
	p.RecalculateStats(items)
	fmt.Fprintf(&b, "You equip %s.", items.Name(itemID))
	return b.String(), true
}

// UnequipItem moves the item in slot back into the inventory.
func (p *Player) UnequipItem(slot string, items ItemCatalog) (msg string, ok bool) {
	slot = strings.ToLower(strings.TrimSpace(slot))
	itemID, known := p.Equipment[slot]
	if !known {
		return fmt.Sprintf("There is no %s slot.", slot), false
	}
	if itemID == "" {
		return fmt.Sprintf("Nothing is equipped in your %s slot.", slot), false
	}
	p.Equipment[slot] = ""
	p.AddItem(itemID)
	p.RecalculateStats(items)
	return fmt.Sprintf("You unequip %s.", items.Name(itemID)), true
}

// EquippedSlot returns the slot holding itemID.
func (p *Player) EquippedSlot(itemID string) (string, bool) {
	for _, slot := range EquipmentSlots {
		if p.Equipment[slot] == itemID {
			return slot, true
		}
	}
	return "", false
}

// AddXP grants experience and applies any level-ups, returning the number of
// levels gained. Each level raises the threshold by half, adds base stats and
// fully heals.
func (p *Player) AddXP(amount int, items ItemCatalog) int {
	if amount <= 0 {
		return 0
	}
	p.XP += amount
	gained := 0
	for p.XPToNextLevel > 0 && p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		p.XPToNextLevel = int(float64(p.XPToNextLevel) * LevelUpThresholdRate)
		p.BaseMaxHP += LevelUpMaxHPGain
		p.BaseAttackPower += LevelUpAttackGain
		gained++
	}
	if gained > 0 {
		p.RecalculateStats(items)
		p.HP = p.MaxHP
	}
	return gained
}

// UpdateSpecialCooldowns ticks every positive cooldown down by one.
func (p *Player) UpdateSpecialCooldowns() {
	for id, turns := range p.SpecialCooldowns {
		if turns > 0 {
			p.SpecialCooldowns[id] = turns - 1
		}
	}
}

// SetDeflecting raises the deflect stance for the next incoming hit.
func (p *Player) SetDeflecting() { p.IsDeflecting = true }
