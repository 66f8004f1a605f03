package actor

import "maps"

// NPC types recognized by the engine's talk resolver.
const (
	NPCTypeNeutral          = "neutral"
	NPCTypeVendor           = "vendor"
	NPCTypeQuestGiverSimple = "quest_giver_simple"
	NPCTypeHostile          = "hostile"
)

// StockUnlimited marks a ware that never sells out.
const StockUnlimited = -1

// DefaultXPReward is granted when a defeated NPC has no xp_reward of its own.
const DefaultXPReward = 25

// DialogueOption is one numbered reply available during a conversation.
type DialogueOption struct {
	Text            string  `json:"text"`
	Response        string  `json:"response,omitempty"`
	TriggersCombat  bool    `json:"triggers_combat,omitempty"`
	ActionType      string  `json:"action_type,omitempty"`    // "end_conversation"
	SuccessChance   float64 `json:"success_chance,omitempty"` // >0 makes the option a roll
	SuccessResponse string  `json:"success_response,omitempty"`
}

// ActionEndConversation closes the dialogue after the option's response.
const ActionEndConversation = "end_conversation"

// NPC is a non-player character instance living in a location.
type NPC struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Dialogue    string `json:"dialogue,omitempty"`
	Type        string `json:"type,omitempty"`
	Hostile     bool   `json:"hostile,omitempty"`

	HP          int `json:"hp,omitempty"`
	MaxHP       int `json:"max_hp,omitempty"`
	AttackPower int `json:"attack_power,omitempty"`
	XPReward    int `json:"xp_reward,omitempty"`

	Loot []string `json:"loot,omitempty"` // Dropped into the room on defeat

	PreCombatDialogue string                    `json:"pre_combat_dialogue,omitempty"`
	DialogueOptions   map[string]DialogueOption `json:"dialogue_options,omitempty"`

	QuestItemNeeded              string `json:"quest_item_needed,omitempty"`
	QuestRewardItem              string `json:"quest_reward_item,omitempty"`
	QuestRewardCurrency          int    `json:"quest_reward_currency,omitempty"`
	DialogueAfterQuestComplete   string `json:"dialogue_after_quest_complete,omitempty"`
	DialogueAfterQuestIncomplete string `json:"dialogue_after_quest_incomplete,omitempty"`
	QuestCompleted               bool   `json:"quest_completed,omitempty"`

	Wares map[string]int `json:"wares,omitempty"` // item ID -> price
	Stock map[string]int `json:"stock,omitempty"` // item ID -> remaining; StockUnlimited never sells out, absent means none
}

// Normalize fills in defaults for fields content left empty.
func (n *NPC) Normalize(id string) {
	if n.ID == "" {
		n.ID = id
	}
	if n.Name == "" {
		n.Name = HumanizeID(id)
	}
	if n.Dialogue == "" {
		n.Dialogue = "..."
	}
	if n.Type == "" {
		n.Type = NPCTypeNeutral
	}
	if n.Type == NPCTypeHostile {
		n.Hostile = true
	}
	if n.MaxHP <= 0 {
		n.MaxHP = 10
	}
	if n.HP <= 0 || n.HP > n.MaxHP {
		n.HP = n.MaxHP
	}
	if n.AttackPower <= 0 {
		n.AttackPower = 1
	}
}

// Clone returns a deep copy.
func (n *NPC) Clone() *NPC {
	if n == nil {
		return nil
	}
	c := *n
	c.Loot = append([]string(nil), n.Loot...)
	c.DialogueOptions = maps.Clone(n.DialogueOptions)
	c.Wares = maps.Clone(n.Wares)
	c.Stock = maps.Clone(n.Stock)
	return &c
}

// TakeDamage reduces the NPC's HP. HP cannot go below 0.
func (n *NPC) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	n.HP -= amount
	if n.HP < 0 {
		n.HP = 0
	}
}

// IsDefeated returns true once HP reaches 0.
func (n *NPC) IsDefeated() bool {
	return n.HP <= 0
}

// Reward returns the XP granted for defeating the NPC.
func (n *NPC) Reward() int {
	if n.XPReward > 0 {
		return n.XPReward
	}
	return DefaultXPReward
}

// HasDialogueTree reports whether talking opens a numbered conversation.
func (n *NPC) HasDialogueTree() bool {
	return n.PreCombatDialogue != "" && len(n.DialogueOptions) > 0
}

// IsAlive reports whether the NPC still has HP.
func (n *NPC) IsAlive() bool { return n.HP > 0 }

// ItemPrice returns the price of a ware.
func (n *NPC) ItemPrice(itemID string) (int, bool) {
	price, ok := n.Wares[itemID]
	return price, ok
}

// HasStock reports whether a ware can still be bought.
func (n *NPC) HasStock(itemID string) bool {
	left, tracked := n.Stock[itemID]
	return tracked && (left == StockUnlimited || left > 0)
}

// ReduceStock records one sale. Unlimited wares are unaffected.
func (n *NPC) ReduceStock(itemID string) {
	if left, tracked := n.Stock[itemID]; tracked && left > 0 {
		n.Stock[itemID] = left - 1
	}
}
