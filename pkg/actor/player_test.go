package actor

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() ItemCatalog {
	return ItemCatalog{
		"simple_knife":  {Name: "Simple Knife", Type: ItemTypeWeapon, EquipSlot: "main_hand", AttackPowerBonus: 1},
		"leather_armor": {Name: "Leather Armor", Type: ItemTypeArmor, EquipSlot: "chest", StatBonuses: map[string]int{"max_hp": 10}},
		"iron_helm":     {Name: "Iron Helm", Type: ItemTypeArmor, EquipSlot: "head", StatBonuses: map[string]int{"max_hp": 5, "attack_power": 1}},
		"lucky_charm":   {Name: "Lucky Charm", Type: "trinket", EquipSlot: SlotTrinket, StatBonuses: map[string]int{"attack_power": 2}},
		"healing_herb":  {Name: "Healing Herb", Type: ItemTypeConsumable, Effect: EffectHeal, Amount: 10},
	}
}

func testSpecies() Species {
	s := Species{ID: "human", Name: "Human", BackstoryIntro: "You awaken with a gasp."}
	s.StatBonuses.HP = 5
	s.StatBonuses.AttackPower = 1
	return s
}

func testClass() Class {
	c := Class{ID: "warrior", Name: "Warrior", StarterItems: []string{"leather_armor"}}
	c.BaseStats.HP = 60
	c.BaseStats.AttackPower = 12
	c.SpecialMoves = map[string]SpecialMove{
		"power_strike": {Name: "Power Strike", DamageMultiplier: 1.5, CooldownMax: 2},
	}
	return c
}

func TestNewPlayer(t *testing.T) {
	p := NewPlayer("Rook", "Female", testSpecies(), testClass())

	assert.Equal(t, "Rook", p.Name)
	assert.Equal(t, 65, p.MaxHP)
	assert.Equal(t, 65, p.HP)
	assert.Equal(t, 13, p.AttackPower)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 100, p.XPToNextLevel)
	assert.Equal(t, []string{"simple_knife", "blank_map_scroll"}, p.Inventory)
	assert.Equal(t, 0, p.SpecialCooldowns["power_strike"])
	assert.True(t, p.GameActive)
	assert.False(t, p.Flag("found_starter_items"))
	for _, slot := range EquipmentSlots {
		v, ok := p.Equipment[slot]
		assert.True(t, ok, "slot %s missing", slot)
		assert.Empty(t, v)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "Rook", nil},
		{"spaces and punctuation", "Anne-Marie O'Neil", nil},
		{"empty", "   ", ErrNameEmpty},
		{"too long", "Abcdefghijklmnopqrstu", ErrNameTooLong},
		{"digits only", "12345", ErrNameAllDigit},
		{"symbols", "Rook!", ErrNameInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddXP(t *testing.T) {
	t.Run("multiple level ups in one award", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.HP = 10

		levels := p.AddXP(250, testCatalog())

		assert.Equal(t, 2, levels)
		assert.Equal(t, 3, p.Level)
		assert.Equal(t, 0, p.XP)
		assert.Equal(t, 225, p.XPToNextLevel)
		assert.Equal(t, 85, p.MaxHP)
		assert.Equal(t, 17, p.AttackPower)
		assert.Equal(t, p.MaxHP, p.HP, "level up fully heals")
	})

	t.Run("below threshold keeps level", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.HP = 10

		assert.Equal(t, 0, p.AddXP(40, testCatalog()))
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 40, p.XP)
		assert.Equal(t, 10, p.HP)
	})

	t.Run("hp never exceeds max across random awards", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		items := testCatalog()
		p.Equipment["chest"] = "leather_armor"
		p.RemoveItem("leather_armor")
		p.RecalculateStats(items)
		for i := 0; i < 200; i++ {
			p.AddXP(rng.Intn(120), items)
			p.TakeDamage(rng.Intn(20))
			p.Heal(rng.Intn(30))
			if p.HP > p.MaxHP {
				t.Fatalf("hp %d exceeds max %d after step %d", p.HP, p.MaxHP, i)
			}
		}
	})
}

func TestEquipItem(t *testing.T) {
	items := testCatalog()

	t.Run("equip then unequip round trips", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("iron_helm")
		invBefore := append([]string(nil), p.Inventory...)
		eqBefore := map[string]string{}
		for k, v := range p.Equipment {
			eqBefore[k] = v
		}

		_, ok := p.EquipItem("iron_helm", "head", items)
		require.True(t, ok)
		assert.Equal(t, "iron_helm", p.Equipment["head"])
		assert.False(t, p.HasItem("iron_helm"))
		assert.Equal(t, 70, p.MaxHP)
		assert.Equal(t, 14, p.AttackPower)

		_, ok = p.UnequipItem("head", items)
		require.True(t, ok)
		assert.ElementsMatch(t, invBefore, p.Inventory)
		assert.Equal(t, eqBefore, p.Equipment)
		assert.Equal(t, 65, p.MaxHP)
		assert.Equal(t, 13, p.AttackPower)
	})

	t.Run("swap returns occupant to inventory", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("leather_armor")
		p.AddItem("leather_armor")
		_, ok := p.EquipItem("leather_armor", "", items)
		require.True(t, ok)
		_, ok = p.EquipItem("leather_armor", "chest", items)
		require.True(t, ok)
		assert.Equal(t, "leather_armor", p.Equipment["chest"])
		assert.Equal(t, 1, countOf(p.Inventory, "leather_armor"))
	})

	t.Run("wrong slot leaves state untouched", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		msg, ok := p.EquipItem("simple_knife", "head", items)
		assert.False(t, ok)
		assert.Equal(t, "Simple Knife can't be worn in the head slot.", msg)
		assert.Empty(t, p.Equipment["head"])
		assert.True(t, p.HasItem("simple_knife"))
	})

	t.Run("unknown item slot names the slot", func(t *testing.T) {
		items := testCatalog()
		items["fairy_wings"] = Item{Name: "Fairy Wings", EquipSlot: "wings"}
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("fairy_wings")

		msg, ok := p.EquipItem("fairy_wings", "", items)
		assert.False(t, ok)
		assert.Equal(t, "Fairy Wings can't be worn in the wings slot.", msg)
		assert.True(t, p.HasItem("fairy_wings"))
	})

	t.Run("non-equippable item", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("healing_herb")
		_, ok := p.EquipItem("healing_herb", "", items)
		assert.False(t, ok)
		assert.True(t, p.HasItem("healing_herb"))
	})

	t.Run("trinkets fill both trinket slots", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("lucky_charm")
		p.AddItem("lucky_charm")
		_, ok := p.EquipItem("lucky_charm", "", items)
		require.True(t, ok)
		_, ok = p.EquipItem("lucky_charm", "", items)
		require.True(t, ok)
		assert.Equal(t, "lucky_charm", p.Equipment["trinket1"])
		assert.Equal(t, "lucky_charm", p.Equipment["trinket2"])
		assert.Equal(t, 17, p.AttackPower)
	})

	t.Run("unequip clamps hp to new max", func(t *testing.T) {
		p := NewPlayer("Rook", "", testSpecies(), testClass())
		p.AddItem("leather_armor")
		_, ok := p.EquipItem("leather_armor", "chest", items)
		require.True(t, ok)
		p.HP = p.MaxHP
		_, ok = p.UnequipItem("chest", items)
		require.True(t, ok)
		assert.Equal(t, 65, p.HP)
	})
}

func countOf(list []string, id string) int {
	n := 0
	for _, v := range list {
		if v == id {
			n++
		}
	}
	return n
}

func TestTakeDamage(t *testing.T) {
	tests := []struct {
		name       string
		hp         int
		deflecting bool
		dmg        int
		wantHP     int
	}{
		{"plain hit", 10, false, 8, 2},
		{"deflect halves", 10, true, 8, 6},
		{"deflect rounds down", 10, true, 7, 7},
		{"floors at zero", 5, false, 20, 0},
		{"negative ignored", 5, false, -3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDefaultPlayer()
			p.MaxHP, p.HP = 10, tt.hp
			p.IsDeflecting = tt.deflecting
			p.TakeDamage(tt.dmg)
			assert.Equal(t, tt.wantHP, p.HP)
			if tt.dmg > 0 {
				assert.False(t, p.IsDeflecting)
			}
		})
	}
}

func TestModes(t *testing.T) {
	p := NewDefaultPlayer()
	assert.Equal(t, "exploration", p.Mode())

	p.StartDialogue("guard", map[string]DialogueOption{"1": {Text: "Hello"}})
	assert.Equal(t, "dialogue", p.Mode())

	p.EnterCombat("guard")
	assert.Equal(t, "combat", p.Mode())
	assert.False(t, p.InDialogue(), "combat clears dialogue")
	assert.Nil(t, p.DialogueOptionsPending)

	p.HandleDefeat()
	assert.False(t, p.GameActive)
	assert.Equal(t, "exploration", p.Mode())
}

func TestUnmarshalPlayer(t *testing.T) {
	t.Run("missing fields fall back to defaults", func(t *testing.T) {
		p, err := UnmarshalPlayer([]byte(`{"name":"Rook","hp":30,"max_hp":65,"attack_power":13,"equipment":{"head":"iron_helm"}}`))
		require.NoError(t, err)
		assert.Equal(t, "Rook", p.Name)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 100, p.XPToNextLevel)
		assert.Equal(t, "iron_helm", p.Equipment["head"])
		assert.Contains(t, p.Equipment, "trinket2")
		assert.Equal(t, 65, p.BaseMaxHP)
		assert.Equal(t, MapZone, p.CurrentMapType)
	})

	t.Run("visited locations round trip as a list", func(t *testing.T) {
		p := NewDefaultPlayer()
		p.MoveTo("b_room")
		p.MoveTo("a_room")
		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"visited_locations":["a_room","b_room"]`)

		back, err := UnmarshalPlayer(data)
		require.NoError(t, err)
		assert.True(t, back.VisitedLocations.Has("a_room"))
		assert.True(t, back.VisitedLocations.Has("b_room"))
	})

	t.Run("corrupt data", func(t *testing.T) {
		_, err := UnmarshalPlayer([]byte(`{"name":`))
		assert.Error(t, err)
	})
}

func TestCooldowns(t *testing.T) {
	p := NewPlayer("Rook", "", testSpecies(), testClass())
	p.SpecialCooldowns["power_strike"] = 2
	p.UpdateSpecialCooldowns()
	assert.Equal(t, 1, p.SpecialCooldowns["power_strike"])
	p.UpdateSpecialCooldowns()
	p.UpdateSpecialCooldowns()
	assert.Equal(t, 0, p.SpecialCooldowns["power_strike"])
}

func TestCityNavigation(t *testing.T) {
	p := NewDefaultPlayer()
	p.MoveTo("east_road")
	p.EnterCity("eldoria", 2, 4)
	assert.True(t, p.InCity())
	assert.Equal(t, "east_road", p.LastZoneLocationID)

	p.ExitCity()
	assert.False(t, p.InCity())
	assert.Equal(t, "east_road", p.CurrentLocationID)
}
