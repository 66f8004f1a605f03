package scene

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// RenderText formats a scene as plain text. A positive width word-wraps the
// output.
func RenderText(sc *Scene, width int) string {
	var b strings.Builder

	if sc.City != nil {
		fmt.Fprintf(&b, "== %s: %s ==\n", sc.City.Name, sc.City.CellName)
	} else {
		fmt.Fprintf(&b, "== %s ==\n", sc.LocationName)
	}
	if sc.Description != "" {
		b.WriteString(sc.Description)
		b.WriteString("\n")
	}

	for _, f := range sc.Features {
		if f.Description != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Description)
		}
	}

	if len(sc.Items) > 0 {
		names := make([]string, 0, len(sc.Items))
		for _, it := range sc.Items {
			names = append(names, itemLabel(it))
		}
		fmt.Fprintf(&b, "You see: %s.\n", joinNames(names))
	}

	if len(sc.NPCs) > 0 {
		names := make([]string, 0, len(sc.NPCs))
		for _, n := range sc.NPCs {
			if n.Hostile {
				names = append(names, n.Name+" (hostile)")
			} else {
				names = append(names, n.Name)
			}
		}
		fmt.Fprintf(&b, "Here: %s.\n", joinNames(names))
	}

	if len(sc.Exits) > 0 {
		fmt.Fprintf(&b, "Exits: %s\n", strings.Join(sc.Exits, ", "))
	} else {
		b.WriteString("There are no obvious exits.\n")
	}

	if sc.Combat != nil {
		fmt.Fprintf(&b, "\n--- COMBAT: %s (HP %d/%d) ---\n", sc.Combat.Name, sc.Combat.HP, sc.Combat.MaxHP)
		b.WriteString("Commands: attack, special <move>, deflect, item <name>\n")
	}
	if sc.Dialogue != nil {
		fmt.Fprintf(&b, "\nTalking to %s:\n", sc.Dialogue.Name)
		for _, o := range sc.Dialogue.Options {
			fmt.Fprintf(&b, "  %s. %s\n", o.Key, o.Text)
		}
		b.WriteString("Choose an option number or type 'leave'.\n")
	}

	if sc.Hint != "" {
		fmt.Fprintf(&b, "\n(%s)\n", sc.Hint)
	}
	if sc.CanSave {
		b.WriteString("(You can save your progress here.)\n")
	}

	out := strings.TrimRight(b.String(), "\n")
	if width > 0 {
		out = wordwrap.String(out, width)
	}
	return out
}

// RenderStatus formats the player's vital stats on one line.
func RenderStatus(pv PlayerView) string {
	return fmt.Sprintf("%s | Lv %d | HP %d/%d | ATK %d | XP %d/%d | Coins %d",
		pv.Name, pv.Level, pv.HP, pv.MaxHP, pv.AttackPower, pv.XP, pv.XPToNextLevel, pv.Coins)
}

func itemLabel(it ItemView) string {
	if it.Count > 1 {
		return fmt.Sprintf("%s (x%d)", it.Name, it.Count)
	}
	return it.Name
}
