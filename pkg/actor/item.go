package actor

import "strings"

// Item types with engine-level meaning. Content may use any other type string.
const (
	ItemTypeConsumable = "consumable"
	ItemTypeFood       = "food"
	ItemTypeCurrency   = "currency"
	ItemTypeKey        = "key_item"
	ItemTypeWeapon     = "weapon"
	ItemTypeArmor      = "armor"
)

// EffectHeal is the item effect that restores hit points.
const EffectHeal = "heal"

// Item is an immutable item template. Players carry item IDs, not Items.
type Item struct {
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	Description      string         `json:"description,omitempty"`
	EquipSlot        string         `json:"equip_slot,omitempty"`
	Effect           string         `json:"effect,omitempty"`
	Amount           int            `json:"amount,omitempty"`
	Value            int            `json:"value,omitempty"`
	AttackPowerBonus int            `json:"attack_power_bonus,omitempty"`
	StatBonuses      map[string]int `json:"stat_bonuses,omitempty"` // "max_hp", "attack_power"
	Use              *Action        `json:"use,omitempty"`          // Outcome pool when used on its own
}

// MaxHPBonus returns the max HP granted while equipped.
func (i Item) MaxHPBonus() int {
	return i.StatBonuses["max_hp"]
}

// AttackBonus returns the attack power granted while equipped.
func (i Item) AttackBonus() int {
	return i.StatBonuses["attack_power"] + i.AttackPowerBonus
}

// IsCoinPouch reports whether picking the item up converts it straight into coins.
func (i Item) IsCoinPouch() bool {
	return i.Type == ItemTypeCurrency && i.Value > 0
}

// IsHealing reports whether the item heals when consumed.
func (i Item) IsHealing() bool {
	return i.Effect == EffectHeal && i.Amount > 0
}

// ItemCatalog maps item IDs to their templates.
type ItemCatalog map[string]Item

// Lookup returns the template for id.
func (c ItemCatalog) Lookup(id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	item, ok := c[id]
	return item, ok
}

// Name returns the display name for id, falling back to a prettified ID.
func (c ItemCatalog) Name(id string) string {
	if item, ok := c.Lookup(id); ok && item.Name != "" {
		return item.Name
	}
	return HumanizeID(id)
}

// Matches reports whether player input refers to the item with the given id,
// either by display name or by its ID with underscores read as spaces.
func (c ItemCatalog) Matches(id, input string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return false
	}
	if input == strings.ToLower(id) || input == strings.ReplaceAll(strings.ToLower(id), "_", " ") {
		return true
	}
	item, ok := c.Lookup(id)
	return ok && strings.ToLower(item.Name) == input
}

// HumanizeID turns "rusty_key" into "rusty key".
func HumanizeID(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}
