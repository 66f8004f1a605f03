package actor

// Species is a selectable character species.
type Species struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	BackstoryIntro string `json:"backstory_intro,omitempty"`
	StatBonuses    struct {
		HP           int `json:"hp_bonus,omitempty"`
		AttackPower  int `json:"attack_bonus,omitempty"`
		SpecialPower int `json:"special_power_bonus,omitempty"`
	} `json:"stat_bonuses"`
}

// SpecialMove is a class ability with a cooldown. A positive Damage is dealt
// flat; otherwise damage is attack power scaled by DamageMultiplier.
type SpecialMove struct {
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	DamageMultiplier float64 `json:"damage_multiplier,omitempty"`
	Damage           int     `json:"damage,omitempty"`
	CooldownMax      int     `json:"cooldown_max"`
}

// DamageFor returns the move's damage given the user's attack power.
func (m SpecialMove) DamageFor(attackPower int) int {
	if m.Damage > 0 {
		return m.Damage
	}
	mult := m.DamageMultiplier
	if mult <= 0 {
		mult = 1
	}
	return int(float64(attackPower) * mult)
}

// Class is a selectable character class.
type Class struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BaseStats   struct {
		HP           int `json:"hp"`
		AttackPower  int `json:"attack_power"`
		SpecialPower int `json:"special_power,omitempty"`
	} `json:"base_stats"`
	SpecialMoves map[string]SpecialMove `json:"special_moves,omitempty"`
	StarterItems []string               `json:"starter_items,omitempty"` // Placed in the starting crate
}
