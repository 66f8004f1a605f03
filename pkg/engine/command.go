package engine

import (
	"context"
	"strings"
)

type commandType string

const (
	cmdStart     commandType = "start"
	cmdSave      commandType = "save"
	cmdQuit      commandType = "quit"
	cmdMap       commandType = "map"
	cmdReload    commandType = "reload_data"
	cmdHelp      commandType = "help"
	cmdLook      commandType = "look"
	cmdInventory commandType = "inventory"
	cmdGo        commandType = "go"
	cmdTake      commandType = "take"
	cmdUse       commandType = "use"
	cmdEquip     commandType = "equip"
	cmdUnequip   commandType = "unequip"
	cmdTalk      commandType = "talk"
	cmdBuy       commandType = "buy"
	cmdEnter     commandType = "enter"
	cmdExit      commandType = "exit"
	cmdView      commandType = "view"
	cmdAttack    commandType = "attack"
	cmdSpecial   commandType = "special"
	cmdDeflect   commandType = "deflect"
	cmdItem      commandType = "item"
	cmdNone      commandType = "" // Not a known verb; may be a feature interaction
)

var known = map[string]commandType{
	"start":       cmdStart,
	"save":        cmdSave,
	"quit":        cmdQuit,
	"exit_game":   cmdQuit,
	"map":         cmdMap,
	"worldmap":    cmdMap,
	"reload_data": cmdReload,
	"reload":      cmdReload,
	"help":        cmdHelp,
	"h":           cmdHelp,
	"look":        cmdLook,
	"l":           cmdLook,
	"inventory":   cmdInventory,
	"inv":         cmdInventory,
	"i":           cmdInventory,
	"go":          cmdGo,
	"move":        cmdGo,
	"walk":        cmdGo,
	"take":        cmdTake,
	"get":         cmdTake,
	"grab":        cmdTake,
	"use":         cmdUse,
	"equip":       cmdEquip,
	"wear":        cmdEquip,
	"wield":       cmdEquip,
	"unequip":     cmdUnequip,
	"remove":      cmdUnequip,
	"talk":        cmdTalk,
	"speak":       cmdTalk,
	"buy":         cmdBuy,
	"purchase":    cmdBuy,
	"enter":       cmdEnter,
	"exit":        cmdExit,
	"view":        cmdView,
	"read":        cmdView,
	"attack":      cmdAttack,
	"a":           cmdAttack,
	"special":     cmdSpecial,
	"deflect":     cmdDeflect,
	"d":           cmdDeflect,
	"item":        cmdItem,
}

// sessionCommands work in every mode, including before a game starts.
var sessionCommands = map[commandType]bool{
	cmdStart:  true,
	cmdSave:   true,
	cmdQuit:   true,
	cmdMap:    true,
	cmdReload: true,
	cmdHelp:   true,
}

var directionAliases = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west",
	"u": "up", "north": "north", "south": "south", "east": "east",
	"west": "west", "up": "up", "down": "down", "out": "out", "in": "in",
}

// command is one parsed line of input.
type command struct {
	kind commandType
	verb string // First word as typed, lowercased
	args string // Everything after the verb, lowercased and trimmed
	raw  string // Whole line, lowercased and trimmed
}

// parseCommand splits input into a verb and arguments. A leading '!' is
// accepted for session commands. Bare directions become "go <direction>".
func parseCommand(input string) command {
	raw := strings.ToLower(strings.Join(strings.Fields(input), " "))
	line := strings.TrimPrefix(raw, "!")
	if line == "" {
		return command{raw: raw}
	}

	verb, args, _ := strings.Cut(line, " ")
	c := command{kind: known[verb], verb: verb, args: strings.TrimSpace(args), raw: raw}

	if c.kind == cmdNone && c.args == "" {
		if dir, ok := directionAliases[verb]; ok {
			c.kind, c.verb, c.args = cmdGo, "go", dir
		}
	}
	if c.kind == cmdGo {
		if dir, ok := directionAliases[c.args]; ok {
			c.args = dir
		}
	}
	// "pick up x" and "talk to x" read naturally.
	switch {
	case verb == "pick" && strings.HasPrefix(c.args, "up "):
		c.kind, c.args = cmdTake, strings.TrimPrefix(c.args, "up ")
	case c.kind == cmdTalk:
		c.args = strings.TrimPrefix(c.args, "to ")
		c.args = strings.TrimPrefix(c.args, "with ")
	}
	return c
}

// Execute resolves one line of input and reports what happened. Player
// facing failures are messages, not errors.
func (e *Engine) Execute(ctx context.Context, input string) *Result {
	t := &turn{ctx: ctx}
	c := parseCommand(input)
	p := e.player

	if c.verb == "" {
		t.say("Please enter a command.")
		return t.result()
	}

	e.logger.Debug("Executing command",
		"player", p.Name,
		"mode", p.Mode(),
		"verb", c.verb,
		"args", c.args)

	if sessionCommands[c.kind] {
		e.handleSession(t, c)
		return t.result()
	}

	if !p.GameActive {
		t.say("The game is not active. Create a new character or load a saved one to begin.")
		return t.result()
	}

	if !e.ensureLocation() {
		e.handleNowhere(t, c)
		return t.result()
	}
	switch {
	case p.InDialogue():
		e.handleDialogue(t, c)
	case p.InCombat():
		e.handleCombat(t, c)
	default:
		e.handleExploration(t, c)
	}
	return t.result()
}

func (e *Engine) handleSession(t *turn, c command) {
	p := e.player
	switch c.kind {
	case cmdStart:
		if p.GameActive {
			t.say("The game has already started!")
			return
		}
		t.say("Create a new character or load a saved one to begin.")
	case cmdSave:
		msg, _ := e.Save(t.ctx)
		t.say(msg)
	case cmdQuit:
		t.quit = true
		t.sayf("Farewell, %s! Thanks for playing.", p.Name)
	case cmdMap:
		e.showMap(t)
	case cmdReload:
		e.reloadData(t)
	case cmdHelp:
		t.say(helpText(p.Mode()))
	}
}

// handleNowhere serves a player with no location to stand in, which only
// happens when content failed to load. Commands that need a room are refused.
func (e *Engine) handleNowhere(t *turn, c command) {
	switch c.kind {
	case cmdLook:
		e.look(t)
	case cmdInventory:
		e.inventory(t)
	case cmdEquip:
		e.equip(t, c.args)
	case cmdUnequip:
		e.unequip(t, c.args)
	default:
		t.say("You are lost in a featureless void. There is nothing to do here.")
	}
}

func (e *Engine) handleExploration(t *turn, c command) {
	// City streets have no items, people or features of their own.
	if e.player.InCity() {
		switch c.kind {
		case cmdTake, cmdTalk, cmdBuy, cmdAttack, cmdNone:
			t.say("There's nothing like that on these streets. Type 'exit city' to leave.")
			return
		}
	}

	switch c.kind {
	case cmdLook:
		e.look(t)
	case cmdInventory:
		e.inventory(t)
	case cmdGo:
		e.move(t, c.args)
	case cmdTake:
		e.take(t, c.args)
	case cmdUse:
		e.use(t, c.args)
	case cmdEquip:
		e.equip(t, c.args)
	case cmdUnequip:
		e.unequip(t, c.args)
	case cmdTalk:
		e.talk(t, c.args)
	case cmdBuy:
		e.buy(t, c.args)
	case cmdEnter:
		e.enterCity(t, c.args)
	case cmdExit:
		e.exitCity(t, c.args)
	case cmdView:
		e.viewMapScroll(t, c.args)
	case cmdAttack:
		e.attackFromExploration(t, c.args)
	case cmdSpecial, cmdDeflect, cmdItem:
		t.say("You're not in combat.")
	default:
		e.interact(t, c.verb, c.args)
	}
}

func helpText(mode string) string {
	switch mode {
	case "combat":
		return strings.Join([]string{
			"Combat commands:",
			"  attack              - strike your opponent",
			"  special <move>      - use a special move",
			"  deflect             - halve the next hit you take",
			"  item <name>         - use a healing item",
		}, "\n")
	case "dialogue":
		return "Choose an option by its number, or type 'leave' to end the conversation."
	}
	return strings.Join([]string{
		"Commands:",
		"  look, inventory, map",
		"  go <direction>          - move (or just type north, south, ...)",
		"  take <item>             - pick something up",
		"  use <item> [on <thing>] - use an item",
		"  equip <item> [to <slot>], unequip <slot>",
		"  talk <someone>, buy <item>",
		"  attack <someone>",
		"  <verb> <thing>          - interact with something you see, e.g. 'open crate'",
		"  enter city, exit city, view map scroll",
		"  save, quit, reload_data, help",
	}, "\n")
}
