package engine

import (
	"maps"
	"slices"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/storage"
)

// npcBehavior is what happens when the player talks to an NPC. Each NPC kind
// gets one implementation; behaviorFor picks it.
type npcBehavior interface {
	talk(e *Engine, t *turn, id string, npc *actor.NPC)
}

type (
	dialogueTreeBehavior struct{}
	questGiverBehavior   struct{}
	hostileBehavior      struct{}
	vendorBehavior       struct{}
	flavorBehavior       struct{}
)

var (
	_ npcBehavior = dialogueTreeBehavior{}
	_ npcBehavior = questGiverBehavior{}
	_ npcBehavior = hostileBehavior{}
	_ npcBehavior = vendorBehavior{}
	_ npcBehavior = flavorBehavior{}
)

func behaviorFor(npc *actor.NPC) npcBehavior {
	switch {
	case npc.HasDialogueTree():
		return dialogueTreeBehavior{}
	case npc.Type == actor.NPCTypeQuestGiverSimple:
		return questGiverBehavior{}
	case npc.Hostile:
		return hostileBehavior{}
	case npc.Type == actor.NPCTypeVendor || len(npc.Wares) > 0:
		return vendorBehavior{}
	}
	return flavorBehavior{}
}

func (e *Engine) talk(t *turn, args string) {
	if args == "" {
		t.say("Talk to whom?")
		return
	}
	id, npc, ok := e.currentLocation().FindNPC(args)
	if !ok {
		t.sayf("There is no one named '%s' here to talk to.", args)
		return
	}
	t.sayf("You approach %s.", npc.Name)
	behaviorFor(npc).talk(e, t, id, npc)
}

func (dialogueTreeBehavior) talk(e *Engine, t *turn, id string, npc *actor.NPC) {
	t.sayf("%s", npc.PreCombatDialogue)
	e.player.StartDialogue(id, npc.DialogueOptions)
	e.showDialogueOptions(t)
}

func (questGiverBehavior) talk(e *Engine, t *turn, id string, npc *actor.NPC) {
	p := e.player
	if npc.QuestCompleted {
		t.sayf("%s says: \"%s\"", npc.Name, orDefault(npc.DialogueAfterQuestComplete, npc.Dialogue))
		return
	}
	if npc.QuestItemNeeded == "" || !p.HasItem(npc.QuestItemNeeded) {
		t.sayf("%s says: \"%s\"", npc.Name, orDefault(npc.DialogueAfterQuestIncomplete, npc.Dialogue))
		return
	}

	t.sayf("%s says: \"%s\"", npc.Name, orDefault(npc.DialogueAfterQuestComplete, "Thank you!"))
	e.consume(t, npc.QuestItemNeeded, "quest:"+id)
	if npc.QuestRewardItem != "" {
		e.acquire(t, npc.QuestRewardItem, "quest:"+id)
	}
	if npc.QuestRewardCurrency > 0 {
		t.sayf("You are also rewarded with %d coins.", npc.QuestRewardCurrency)
		e.grantCoins(t, npc.QuestRewardCurrency, "quest:"+id)
	}
	npc.QuestCompleted = true
	e.logEvent(t.ctx, storage.EventQuestTurnedIn, map[string]any{
		"npc_id":          id,
		"item_id":         npc.QuestItemNeeded,
		"reward_item_id":  npc.QuestRewardItem,
		"reward_currency": npc.QuestRewardCurrency,
	})
}

func (hostileBehavior) talk(e *Engine, t *turn, id string, npc *actor.NPC) {
	t.sayf("%s", npc.Dialogue)
	e.startCombat(t, id, npc)
}

func (vendorBehavior) talk(e *Engine, t *turn, id string, npc *actor.NPC) {
	t.sayf("%s says: \"%s\"", npc.Name, npc.Dialogue)
	if len(npc.Wares) == 0 {
		return
	}
	t.say("For sale:")
	for _, itemID := range slices.Sorted(maps.Keys(npc.Wares)) {
		price, _ := npc.ItemPrice(itemID)
		switch left, tracked := npc.Stock[itemID]; {
		case !npc.HasStock(itemID):
			t.sayf("  - %s: %d coins (sold out)", e.world.Items.Name(itemID), price)
		case tracked && left != actor.StockUnlimited:
			t.sayf("  - %s: %d coins (%d left)", e.world.Items.Name(itemID), price, left)
		default:
			t.sayf("  - %s: %d coins", e.world.Items.Name(itemID), price)
		}
	}
	t.say("Type 'buy <item>' to purchase.")
}

func (flavorBehavior) talk(e *Engine, t *turn, id string, npc *actor.NPC) {
	t.sayf("%s says: \"%s\"", npc.Name, npc.Dialogue)
}

func (e *Engine) showDialogueOptions(t *turn) {
	opts := e.player.DialogueOptionsPending
	for _, key := range slices.Sorted(maps.Keys(opts)) {
		t.sayf("  %s. %s", key, opts[key].Text)
	}
	t.say("Choose an option number or type 'leave'.")
}

// handleDialogue resolves a numbered choice or "leave" in an open
// conversation.
func (e *Engine) handleDialogue(t *turn, c command) {
	p := e.player
	npcID := p.DialogueNPCID
	npc := e.currentLocation().NPCs[npcID]
	if npc == nil {
		p.EndDialogue()
		t.say("There's no one here to talk to anymore.")
		return
	}

	choice := c.raw
	if choice == "leave" || c.verb == "leave" {
		p.EndDialogue()
		t.sayf("You end the conversation with %s.", npc.Name)
		return
	}
	opt, ok := p.DialogueOptionsPending[choice]
	if !ok {
		t.say("Invalid choice. Please type the number of the option or 'leave'.")
		return
	}

	t.sayf("> %s", opt.Text)
	if opt.SuccessChance > 0 {
		if e.rng.Float64() < opt.SuccessChance {
			t.sayf("%s", orDefault(opt.SuccessResponse, opt.Response))
			p.EndDialogue()
			return
		}
		t.sayf("%s", opt.Response)
		if opt.TriggersCombat {
			e.startCombat(t, npcID, npc)
		} else {
			p.EndDialogue()
		}
		return
	}

	if opt.Response != "" {
		t.sayf("%s says: \"%s\"", npc.Name, opt.Response)
	}
	switch {
	case opt.TriggersCombat:
		e.startCombat(t, npcID, npc)
	case opt.ActionType == actor.ActionEndConversation:
		p.EndDialogue()
	default:
		e.showDialogueOptions(t)
	}
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
