package actor

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// OutcomeType tags the effect carried by an Outcome.
type OutcomeType string

const (
	OutcomeMessage     OutcomeType = "message"      // Message only
	OutcomeItem        OutcomeType = "item"         // Grant ItemID
	OutcomeRevealItems OutcomeType = "reveal_items" // Empty the container's pending contents into the player's hands
	OutcomeStatChange  OutcomeType = "stat_change"  // Adjust Stat by Amount
	OutcomeCoins       OutcomeType = "coins"        // Grant Amount coins
)

// Outcome is one possible result of an action. Only the fields relevant to
// its Type are populated.
type Outcome struct {
	Type    OutcomeType `json:"type"`
	Message string      `json:"message,omitempty"`
	ItemID  string      `json:"item_id,omitempty"`
	Stat    string      `json:"stat,omitempty"`
	Amount  int         `json:"amount,omitempty"`
}

// UnmarshalJSON rejects unknown outcome types so bad content fails at load
// time instead of silently doing nothing in play.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	type raw Outcome
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Type == "" {
		r.Type = OutcomeMessage
	}
	switch r.Type {
	case OutcomeMessage, OutcomeRevealItems, OutcomeStatChange, OutcomeCoins:
	case OutcomeItem:
		if r.ItemID == "" {
			return fmt.Errorf("outcome of type %q requires item_id", r.Type)
		}
	default:
		return fmt.Errorf("unknown outcome type %q", r.Type)
	}
	*o = Outcome(r)
	return nil
}

// Action is an outcome pool with optional parallel weights.
type Action struct {
	Outcomes      []Outcome `json:"outcomes"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// Choose picks an outcome. When Probabilities has the same length as
// Outcomes they are used as relative weights; otherwise the first outcome is
// returned. The second return is false for an empty pool.
func (a Action) Choose(rng *rand.Rand) (Outcome, bool) {
	if len(a.Outcomes) == 0 {
		return Outcome{}, false
	}
	if len(a.Probabilities) != len(a.Outcomes) || rng == nil {
		return a.Outcomes[0], true
	}

	var total float64
	for _, w := range a.Probabilities {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return a.Outcomes[0], true
	}

	r := rng.Float64() * total
	for i, w := range a.Probabilities {
		if w <= 0 {
			continue
		}
		if r < w {
			return a.Outcomes[i], true
		}
		r -= w
	}
	// Float rounding can leave r just past the last weight.
	for i := len(a.Probabilities) - 1; i >= 0; i-- {
		if a.Probabilities[i] > 0 {
			return a.Outcomes[i], true
		}
	}
	return a.Outcomes[0], true
}
