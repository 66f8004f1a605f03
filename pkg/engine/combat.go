package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/storage"
)

// handleCombat resolves one player action against the current target. Any
// action that spends the turn is followed by the NPC's attack unless the
// fight ended.
func (e *Engine) handleCombat(t *turn, c command) {
	p := e.player
	loc := e.currentLocation()
	npcID := p.CombatTargetID
	npc := loc.NPCs[npcID]
	if npc == nil {
		e.logger.Warn("Combat target missing, ending combat", "player", p.Name, "target", p.CombatTargetID)
		p.LeaveCombat()
		t.say("Your opponent is nowhere to be seen. The fight is over.")
		return
	}

	acted := false
	switch c.kind {
	case cmdAttack:
		dmg := p.AttackPower
		npc.TakeDamage(dmg)
		t.sayf("You attack %s for %d damage.", npc.Name, dmg)
		acted = true
	case cmdSpecial:
		acted = e.special(t, npc, c.args)
	case cmdDeflect:
		p.SetDeflecting()
		t.say("You brace yourself, preparing to deflect the next attack.")
		acted = true
	case cmdItem, cmdUse:
		acted = e.combatItem(t, c.args)
	case cmdInventory:
		e.inventory(t)
	case cmdLook:
		e.look(t)
	default:
		t.say("You're in combat! Valid commands: attack, special <move>, deflect, item <name>.")
	}

	if !acted {
		return
	}
	if !npc.IsAlive() {
		e.handleNPCDefeat(t, npcID, npc)
		return
	}
	e.npcTurn(t, npc)
}

func (e *Engine) special(t *turn, npc *actor.NPC, args string) bool {
	p := e.player
	if args == "" {
		if len(p.SpecialMoves) == 0 {
			t.say("You don't know any special moves.")
			return false
		}
		t.say("Which special move?")
		for _, id := range slices.Sorted(maps.Keys(p.SpecialMoves)) {
			status := "Ready"
			if cd := p.SpecialCooldowns[id]; cd > 0 {
				status = "Cooldown: " + pluralTurns(cd)
			}
			t.sayf("  special %s - %s (%s)", actor.HumanizeID(id), p.SpecialMoves[id].Description, status)
		}
		return false
	}

	moveID, move, ok := e.findSpecial(args)
	if !ok {
		t.sayf("You don't know a special move called '%s'.", args)
		return false
	}
	if cd := p.SpecialCooldowns[moveID]; cd > 0 {
		t.sayf("%s is on cooldown (%s left).", move.Name, pluralTurns(cd))
		return false
	}
	dmg := move.DamageFor(p.AttackPower)
	npc.TakeDamage(dmg)
	p.SpecialCooldowns[moveID] = move.CooldownMax
	t.sayf("You use %s on %s for %d damage!", move.Name, npc.Name, dmg)
	return true
}

func (e *Engine) findSpecial(input string) (string, actor.SpecialMove, bool) {
	p := e.player
	id := strings.ReplaceAll(strings.TrimSpace(input), " ", "_")
	if m, ok := p.SpecialMoves[id]; ok {
		return id, m, true
	}
	for _, id := range slices.Sorted(maps.Keys(p.SpecialMoves)) {
		if m := p.SpecialMoves[id]; strings.EqualFold(m.Name, input) {
			return id, m, true
		}
	}
	return "", actor.SpecialMove{}, false
}

// combatItem uses a healing item mid-fight.
func (e *Engine) combatItem(t *turn, args string) bool {
	if args == "" {
		t.say("Use which item?")
		return false
	}
	itemID, ok := e.findInventoryItem(args)
	if !ok {
		t.sayf("You don't have a '%s'.", args)
		return false
	}
	item, _ := e.world.Items.Lookup(itemID)
	if !item.IsHealing() {
		t.sayf("You can't use the %s in that way right now.", e.world.Items.Name(itemID))
		return false
	}
	return e.useItem(t, itemID)
}

// npcTurn lets the target strike back, then ticks special cooldowns.
func (e *Engine) npcTurn(t *turn, npc *actor.NPC) {
	p := e.player
	if !p.GameActive || !npc.IsAlive() {
		return
	}
	t.say("")
	t.sayf("%s's turn...", npc.Name)
	if p.IsDeflecting {
		t.say("You deflect part of the blow!")
	}
	dmg := p.TakeDamage(npc.AttackPower)
	t.sayf("%s attacks you for %d damage. (HP: %d/%d)", npc.Name, dmg, p.HP, p.MaxHP)
	if p.IsDefeated() {
		e.defeatPlayer(t)
	}
	p.UpdateSpecialCooldowns()
}

func (e *Engine) defeatPlayer(t *turn) {
	p := e.player
	e.logEvent(t.ctx, storage.EventPlayerDefeated, map[string]any{
		"location_id": p.CurrentLocationID,
		"opponent":    p.CombatTargetID,
	})
	p.HandleDefeat()
	e.logger.Info("Player defeated", "player", p.Name, "location", p.CurrentLocationID)
	t.say("")
	t.say("Your vision fades... You have been defeated.")
	t.say("--- GAME OVER ---")
}

// handleNPCDefeat drops loot into the room, awards XP and removes the NPC.
func (e *Engine) handleNPCDefeat(t *turn, npcID string, npc *actor.NPC) {
	p := e.player
	loc := e.currentLocation()
	t.say("")
	t.sayf("%s has been defeated!", npc.Name)

	if len(npc.Loot) > 0 {
		loc.Items = append(loc.Items, npc.Loot...)
		for _, id := range npc.Loot {
			t.sayf("%s dropped a %s!", npc.Name, e.world.Items.Name(id))
		}
		e.logEvent(t.ctx, storage.EventNPCLootDropped, map[string]any{
			"npc_id":        npcID,
			"dropped_items": npc.Loot,
			"location_id":   loc.ID,
		})
	}
	e.logEvent(t.ctx, storage.EventNPCDefeated, map[string]any{"npc_id": npcID, "location_id": loc.ID})

	delete(loc.NPCs, npcID)
	p.LeaveCombat()
	p.EndDialogue()
	e.grantXP(t, npc.Reward(), "defeat:"+npcID)
}

// startCombat puts the player in combat with an NPC in the current room.
func (e *Engine) startCombat(t *turn, npcID string, npc *actor.NPC) {
	e.player.EnterCombat(npcID)
	t.say("")
	t.say("--- COMBAT START ---")
	t.sayf("You are attacked by %s!", npc.Name)
}

// attackFromExploration starts a fight with a named NPC. The first blow
// lands immediately.
func (e *Engine) attackFromExploration(t *turn, args string) {
	if args == "" {
		t.say("Attack whom?")
		return
	}
	npcID, npc, ok := e.currentLocation().FindNPC(args)
	if !ok {
		t.sayf("There is no %s here.", args)
		return
	}
	e.player.EnterCombat(npcID)
	t.sayf("You attack %s!", npc.Name)
	e.handleCombat(t, command{kind: cmdAttack, verb: "attack"})
}

func pluralTurns(n int) string {
	if n == 1 {
		return "1 turn"
	}
	return fmt.Sprintf("%d turns", n)
}
