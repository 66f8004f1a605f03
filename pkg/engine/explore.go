package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/scene"
	"github.com/jwebster45206/textland/pkg/storage"
)

func (e *Engine) look(t *turn) {
	t.say(scene.RenderText(scene.Build(e.world, e.player), 0))
}

func (e *Engine) inventory(t *turn) {
	p := e.player
	items := e.world.Items
	if len(p.Inventory) == 0 {
		t.say("Your inventory is empty.")
	} else {
		t.say("You are carrying:")
		counts := map[string]int{}
		var order []string
		for _, id := range p.Inventory {
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
		for _, id := range order {
			if counts[id] > 1 {
				t.sayf("  - %s (x%d)", items.Name(id), counts[id])
			} else {
				t.sayf("  - %s", items.Name(id))
			}
		}
	}

	var worn []string
	for _, slot := range actor.EquipmentSlots {
		if id := p.Equipment[slot]; id != "" {
			worn = append(worn, fmt.Sprintf("  %s: %s", slot, items.Name(id)))
		}
	}
	if len(worn) > 0 {
		t.say("Equipped:")
		t.lines = append(t.lines, worn...)
	}
	t.sayf("Coins: %d", p.Coins)
}

// move walks the zone graph, or the city grid when the player is in a city.
func (e *Engine) move(t *turn, dir string) {
	p := e.player
	if dir == "" {
		t.say("Go where?")
		return
	}
	if p.InCity() {
		e.moveInCity(t, dir)
		return
	}

	loc := e.currentLocation()
	if reason, blocked := loc.BlockedExits[dir]; blocked {
		t.say(reason)
		return
	}
	destID, ok := loc.Exits[dir]
	if !ok {
		t.say("You can't go that way.")
		return
	}
	dest, ok := e.world.Location(destID)
	if !ok {
		e.logger.Warn("Exit leads to unknown location", "from", loc.ID, "direction", dir, "to", destID)
		t.say("That way seems to lead nowhere.")
		return
	}

	if dest.CityEntry != "" {
		city, cityOK := e.world.City(dest.CityEntry)
		entry, entryOK := content.Point{}, false
		if cityOK {
			entry, entryOK = city.Entries[destID]
		}
		if entryOK {
			p.VisitedLocations.Add(destID)
			p.EnterCity(city.ID, entry.X, entry.Y)
			t.sayf("You head %s into %s.", dir, city.Name)
			e.look(t)
			return
		}
		e.logger.Warn("City entry misconfigured, moving on zone graph", "location", destID, "city", dest.CityEntry)
	}

	p.MoveTo(destID)
	e.look(t)
}

func (e *Engine) moveInCity(t *turn, dir string) {
	p := e.player
	city, ok := e.world.City(p.CurrentCityID)
	if !ok {
		p.ExitCity()
		t.say("The streets fade around you and you find yourself back outside the city.")
		return
	}
	if !slices.Contains(content.CityDirections, dir) {
		t.say("In the city you can go north, south, east or west.")
		return
	}

	next := content.Point{X: p.CityX, Y: p.CityY}.Step(dir)
	cell, inBounds := city.Cell(next)
	switch {
	case !inBounds:
		t.sayf("You can't go further %s; the city ends here.", dir)
	case cell.Impassable:
		t.sayf("The way %s is blocked by the %s.", dir, strings.ToLower(cell.Name))
	default:
		p.CityX, p.CityY = next.X, next.Y
		e.look(t)
	}
}

func (e *Engine) enterCity(t *turn, args string) {
	p := e.player
	if args != "" && args != "city" {
		t.say("Enter what?")
		return
	}
	if p.InCity() {
		t.say("You're already in the city.")
		return
	}
	city, entry, ok := e.world.CityEntryAt(p.CurrentLocationID)
	if !ok {
		t.say("There's no way into a city from here.")
		return
	}
	p.EnterCity(city.ID, entry.X, entry.Y)
	t.sayf("You enter %s.", city.Name)
	e.look(t)
}

func (e *Engine) exitCity(t *turn, args string) {
	p := e.player
	if args != "" && args != "city" {
		t.say("Exit what?")
		return
	}
	if !p.InCity() {
		t.say("You're not in a city.")
		return
	}
	p.ExitCity()
	e.ensureLocation()
	t.say("You leave the city streets behind.")
	e.look(t)
}

func (e *Engine) showMap(t *turn) {
	p := e.player
	if !p.GameActive {
		t.say("Start a game to see the map.")
		return
	}
	e.ensureLocation()

	var lines []string
	if city, ok := e.world.City(p.CurrentCityID); ok && p.InCity() {
		lines = city.Render(content.Point{X: p.CityX, Y: p.CityY})
	} else {
		loc := e.currentLocation()
		switch {
		case loc == nil || loc.Zone == "":
			lines = []string{"This area is uncharted."}
		case e.world.ZoneLayouts[loc.Zone] != nil:
			lines = e.world.ZoneLayouts[loc.Zone].Render(loc.ID)
		default:
			lines = []string{fmt.Sprintf("--- Area: %s ---", loc.Zone), "Locations in this area:"}
			for _, l := range e.world.ZoneLocations(loc.Zone) {
				marker := ""
				if l.ID == loc.ID {
					marker = " (You are here)"
				}
				lines = append(lines, fmt.Sprintf("  - %s%s", l.Name, marker))
			}
		}
	}
	t.mapLines = lines
	t.say(strings.Join(lines, "\n"))
}

func (e *Engine) viewMapScroll(t *turn, args string) {
	if args != "map scroll" && args != "map" && args != "scroll" {
		t.say("View what?")
		return
	}
	for _, id := range e.player.Inventory {
		if item, ok := e.world.Items.Lookup(id); ok && (item.Type == "map_scroll" || item.Type == "map") {
			t.sayf("You unroll the %s. Ink spreads across the parchment, tracing your surroundings.", item.Name)
			e.showMap(t)
			return
		}
	}
	t.say("You don't have a map scroll.")
}

func (e *Engine) reloadData(t *turn) {
	if err := e.world.Reload(); err != nil {
		e.logger.Error("Failed to reload content", "error", err)
		t.say("Failed to reload game data.")
		return
	}
	p := e.player
	if p.GameActive {
		e.ensureLocation()
		loc := e.currentLocation()
		if p.InCombat() && (loc == nil || loc.NPCs[p.CombatTargetID] == nil) {
			p.LeaveCombat()
		}
		if p.InDialogue() && (loc == nil || loc.NPCs[p.DialogueNPCID] == nil) {
			p.EndDialogue()
		}
		p.RecalculateStats(e.world.Items)
	}
	e.logger.Info("Content reloaded", "player", p.Name)
	t.say("Game data reloaded.")
}

// findInventoryItem resolves input to an item the player carries.
func (e *Engine) findInventoryItem(input string) (string, bool) {
	for _, id := range e.player.Inventory {
		if e.world.Items.Matches(id, input) {
			return id, true
		}
	}
	return "", false
}

func (e *Engine) take(t *turn, args string) {
	if args == "" {
		t.say("Take what?")
		return
	}
	loc := e.currentLocation()
	for _, id := range loc.Items {
		if !e.world.Items.Matches(id, args) {
			continue
		}
		loc.RemoveItem(id)
		e.acquire(t, id, "take")
		return
	}
	t.sayf("There is no %s here.", args)
}

// acquire gives an item to the player. Coin pouches become coins.
func (e *Engine) acquire(t *turn, itemID, source string) {
	item, ok := e.world.Items.Lookup(itemID)
	if ok && item.IsCoinPouch() {
		t.sayf("You open the %s and find %d coins.", item.Name, item.Value)
		e.grantCoins(t, item.Value, source)
		return
	}
	e.player.AddItem(itemID)
	t.sayf("You take the %s.", e.world.Items.Name(itemID))
	e.logEvent(t.ctx, storage.EventItemAcquisition, map[string]any{"item_id": itemID, "source": source})
}

func (e *Engine) grantCoins(t *turn, amount int, source string) {
	if amount <= 0 {
		return
	}
	e.player.AddCoins(amount)
	e.logEvent(t.ctx, storage.EventCurrencyGained, map[string]any{"amount": amount, "source": source, "total": e.player.Coins})
}

func (e *Engine) grantXP(t *turn, amount int, source string) {
	p := e.player
	before := p.Level
	levels := p.AddXP(amount, e.world.Items)
	t.sayf("You gain %d XP.", amount)
	e.logEvent(t.ctx, storage.EventXPGained, map[string]any{"amount": amount, "source": source})
	if levels > 0 {
		t.sayf("*** LEVEL UP! You are now level %d. You feel fully restored. ***", p.Level)
		e.logEvent(t.ctx, storage.EventLevelUp, map[string]any{"from": before, "to": p.Level})
	}
}

func (e *Engine) consume(t *turn, itemID, reason string) {
	if e.player.RemoveItem(itemID) {
		e.logEvent(t.ctx, storage.EventItemRemoval, map[string]any{"item_id": itemID, "reason": reason})
	}
}

// use handles "use <item>" and "use <item> on <feature>".
func (e *Engine) use(t *turn, args string) {
	if args == "" {
		t.say("Use what?")
		return
	}
	itemInput, targetInput, onTarget := strings.Cut(args, " on ")
	itemID, ok := e.findInventoryItem(itemInput)
	if !ok {
		t.sayf("You don't have %s.", strings.TrimSpace(itemInput))
		return
	}
	if onTarget {
		e.useOnFeature(t, itemID, strings.TrimSpace(targetInput))
		return
	}
	e.useItem(t, itemID)
}

// useItem consumes an item on its own. It reports whether a turn was spent.
func (e *Engine) useItem(t *turn, itemID string) bool {
	p := e.player
	item, _ := e.world.Items.Lookup(itemID)
	name := e.world.Items.Name(itemID)

	switch {
	case item.Use != nil:
		outcome, ok := item.Use.Choose(e.rng)
		if !ok {
			t.say("Nothing happens.")
			return false
		}
		e.consume(t, itemID, "used")
		e.applyOutcome(t, outcome, nil, "item:"+itemID)
		return true
	case item.IsHealing():
		healed := p.Heal(item.Amount)
		e.consume(t, itemID, "used")
		t.sayf("You use the %s and recover %d HP. (HP: %d/%d)", name, healed, p.HP, p.MaxHP)
		return true
	case item.IsCoinPouch():
		e.consume(t, itemID, "opened")
		t.sayf("You empty the %s and find %d coins.", name, item.Value)
		e.grantCoins(t, item.Value, "item:"+itemID)
		return true
	case item.Type == "map_scroll" || item.Type == "map":
		e.viewMapScroll(t, "map scroll")
		return false
	}
	t.sayf("You can't use the %s on its own.", name)
	return false
}

func (e *Engine) useOnFeature(t *turn, itemID, target string) {
	loc := e.currentLocation()
	featureID, f, ok := loc.FindFeature(target)
	if !ok {
		t.sayf("You don't see a %s here.", target)
		return
	}
	name := featureName(featureID, f)
	itemName := e.world.Items.Name(itemID)

	switch {
	case f.KeyNeeded == "":
		t.sayf("You can't use the %s on the %s.", itemName, name)
	case !f.Locked:
		t.sayf("The %s is already unlocked.", name)
	case itemID != f.KeyNeeded:
		t.sayf("The %s doesn't seem to work on the %s.", itemName, name)
	default:
		f.Locked = false
		if f.UnlockMessage != "" {
			t.say(f.UnlockMessage)
		} else {
			t.sayf("You unlock the %s.", name)
		}
		e.consume(t, itemID, "unlock:"+featureID)
		e.logEvent(t.ctx, storage.EventFeatureUnlocked, map[string]any{"feature_id": featureID, "location_id": loc.ID})
		if f.ContainsItemOnUnlock != "" {
			revealed := f.ContainsItemOnUnlock
			f.ContainsItemOnUnlock = ""
			loc.Items = append(loc.Items, revealed)
			t.sayf("Inside, you find a %s.", e.world.Items.Name(revealed))
			e.logEvent(t.ctx, storage.EventFeatureItemRevealed, map[string]any{"feature_id": featureID, "item_id": revealed})
		}
	}
}

func (e *Engine) equip(t *turn, args string) {
	if args == "" {
		t.say("Equip what?")
		return
	}
	itemInput, slot := args, ""
	for _, sep := range []string{" to ", " in ", " on "} {
		if before, after, ok := strings.Cut(args, sep); ok {
			itemInput, slot = before, strings.ReplaceAll(strings.TrimSpace(after), " ", "_")
			break
		}
	}
	itemID, ok := e.findInventoryItem(itemInput)
	if !ok {
		t.sayf("You don't have %s.", itemInput)
		return
	}
	msg, ok := e.player.EquipItem(itemID, slot, e.world.Items)
	t.say(msg)
	if ok {
		slot, _ := e.player.EquippedSlot(itemID)
		e.logEvent(t.ctx, storage.EventItemEquipped, map[string]any{"item_id": itemID, "slot": slot})
	}
}

func (e *Engine) unequip(t *turn, args string) {
	p := e.player
	if args == "" {
		t.say("Unequip what?")
		return
	}
	slot := strings.ReplaceAll(args, " ", "_")
	if _, isSlot := p.Equipment[slot]; !isSlot {
		for _, s := range actor.EquipmentSlots {
			if id := p.Equipment[s]; id != "" && e.world.Items.Matches(id, args) {
				slot = s
				break
			}
		}
	}
	itemID := p.Equipment[slot]
	msg, ok := p.UnequipItem(slot, e.world.Items)
	t.say(msg)
	if ok {
		e.logEvent(t.ctx, storage.EventItemUnequipped, map[string]any{"item_id": itemID, "slot": slot})
	}
}

func (e *Engine) buy(t *turn, args string) {
	if args == "" {
		t.say("Buy what?")
		return
	}
	p := e.player
	loc := e.currentLocation()
	var vendors []*actor.NPC
	for _, id := range slices.Sorted(maps.Keys(loc.NPCs)) {
		if npc := loc.NPCs[id]; len(npc.Wares) > 0 {
			vendors = append(vendors, npc)
		}
	}
	if len(vendors) == 0 {
		t.say("There's no one selling anything here.")
		return
	}

	for _, vendor := range vendors {
		for _, itemID := range slices.Sorted(maps.Keys(vendor.Wares)) {
			if !e.world.Items.Matches(itemID, args) {
				continue
			}
			name := e.world.Items.Name(itemID)
			price, _ := vendor.ItemPrice(itemID)
			if !vendor.HasStock(itemID) {
				t.sayf("%s is sold out of %s.", vendor.Name, name)
				return
			}
			if !p.SpendCoins(price) {
				t.sayf("You can't afford the %s. It costs %d coins and you have %d.", name, price, p.Coins)
				return
			}
			vendor.ReduceStock(itemID)
			p.AddItem(itemID)
			t.sayf("You buy the %s from %s for %d coins.", name, vendor.Name, price)
			e.logEvent(t.ctx, storage.EventCurrencySpent, map[string]any{"amount": price, "total": p.Coins})
			e.logEvent(t.ctx, storage.EventItemPurchased, map[string]any{"item_id": itemID, "vendor": vendor.ID, "price": price})
			return
		}
	}
	t.sayf("Nobody here sells %s.", args)
}

// interact resolves "<verb> <feature>" against the feature's outcome pools.
func (e *Engine) interact(t *turn, verb, args string) {
	if args == "" {
		t.sayf("I don't understand '%s'. Type 'help' for a list of commands.", verb)
		return
	}
	loc := e.currentLocation()
	featureID, f, ok := loc.FindFeature(strings.TrimPrefix(args, "the "))
	if !ok {
		t.sayf("I don't understand '%s %s'. Type 'help' for a list of commands.", verb, args)
		return
	}
	action, ok := f.Actions[verb]
	if !ok {
		t.sayf("You can't %s the %s.", verb, featureName(featureID, f))
		return
	}
	outcome, ok := action.Choose(e.rng)
	if !ok {
		t.say("Nothing happens.")
		return
	}
	if outcome.Type == actor.OutcomeRevealItems && !f.Closed {
		t.sayf("The %s is already open.", featureName(featureID, f))
		return
	}
	e.applyOutcome(t, outcome, &featureRef{id: featureID, feature: f, location: loc}, "feature:"+featureID)
}

type featureRef struct {
	id       string
	feature  *content.Feature
	location *content.Location
}

// applyOutcome carries out one chosen outcome. ref is nil for item pools.
func (e *Engine) applyOutcome(t *turn, o actor.Outcome, ref *featureRef, source string) {
	p := e.player
	if o.Message != "" {
		t.say(o.Message)
	}

	switch o.Type {
	case actor.OutcomeItem:
		e.acquire(t, o.ItemID, source)
		if ref != nil {
			e.logEvent(t.ctx, storage.EventFeatureItemRevealed, map[string]any{"feature_id": ref.id, "item_id": o.ItemID})
		}

	case actor.OutcomeRevealItems:
		if ref == nil {
			return
		}
		f := ref.feature
		contents := f.ContainsOnOpen
		f.ContainsOnOpen = []string{}
		f.Closed = false
		if f.SetsFlag != "" {
			p.SetFlag(f.SetsFlag, true)
		}
		if len(contents) == 0 {
			t.say("It's empty.")
			return
		}
		for _, id := range contents {
			e.acquire(t, id, source)
		}
		e.logEvent(t.ctx, storage.EventCrateContentsRevealed, map[string]any{
			"feature_id":  ref.id,
			"location_id": ref.location.ID,
			"items":       contents,
		})

	case actor.OutcomeStatChange:
		e.applyStatChange(t, o)

	case actor.OutcomeCoins:
		if o.Amount > 0 {
			t.sayf("You gain %d coins.", o.Amount)
			e.grantCoins(t, o.Amount, source)
		}
	}
}

func (e *Engine) applyStatChange(t *turn, o actor.Outcome) {
	p := e.player
	switch o.Stat {
	case "hp", "":
		if o.Amount >= 0 {
			p.Heal(o.Amount)
		} else {
			p.TakeDamage(-o.Amount)
		}
		t.sayf("(HP: %d/%d)", p.HP, p.MaxHP)
		if p.IsDefeated() {
			e.defeatPlayer(t)
		}
	case "max_hp":
		p.BaseMaxHP += o.Amount
		p.RecalculateStats(e.world.Items)
	case "attack_power":
		p.BaseAttackPower += o.Amount
		p.RecalculateStats(e.world.Items)
	default:
		e.logger.Warn("Unknown stat in outcome", "stat", o.Stat)
	}
}

func featureName(id string, f *content.Feature) string {
	if f.Name != "" {
		return f.Name
	}
	return actor.HumanizeID(id)
}
