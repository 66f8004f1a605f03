// Package engine resolves player commands against the game world. An Engine
// owns one player and one world and is not safe for concurrent use; callers
// serialize access (see internal/session).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/storage"
)

// Engine is the game-state engine for a single player.
type Engine struct {
	world  *content.World
	player *actor.Player
	store  storage.SaveStore
	events storage.EventLog
	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the save store. A store that also implements
// storage.EventLog is used for the event log too.
func WithStore(s storage.SaveStore) Option {
	return func(e *Engine) {
		e.store = s
		if el, ok := s.(storage.EventLog); ok && e.events == nil {
			e.events = el
		}
	}
}

// WithEventLog sets the event log.
func WithEventLog(l storage.EventLog) Option {
	return func(e *Engine) { e.events = l }
}

// WithRand injects the random source used for weighted outcomes and
// dialogue rolls.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithPlayer starts the engine with an existing player.
func WithPlayer(p *actor.Player) Option {
	return func(e *Engine) {
		if p != nil {
			e.player = p
		}
	}
}

// New creates an engine over world. The player starts inactive until a
// character is created or loaded.
func New(world *content.World, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		world:  world,
		player: actor.NewDefaultPlayer(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// World returns the engine's world.
func (e *Engine) World() *content.World { return e.world }

// Player returns the current player.
func (e *Engine) Player() *actor.Player { return e.player }

// Result is the outcome of one command.
type Result struct {
	Message  string   `json:"message"`
	MapLines []string `json:"map_lines,omitempty"`
	Quit     bool     `json:"quit,omitempty"`
}

// turn collects output while a command resolves.
type turn struct {
	ctx      context.Context
	lines    []string
	mapLines []string
	quit     bool
}

func (t *turn) say(msg string) {
	t.lines = append(t.lines, msg)
}

func (t *turn) sayf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *turn) result() *Result {
	return &Result{
		Message:  strings.Join(t.lines, "\n"),
		MapLines: t.mapLines,
		Quit:     t.quit,
	}
}

// logEvent appends to the event log. Failures are logged and never reach
// the player.
func (e *Engine) logEvent(ctx context.Context, eventType string, data map[string]any) {
	p := e.player
	if e.events == nil || !p.GameActive {
		return
	}
	if err := e.events.AppendEvent(ctx, p.Name, storage.NewEvent(eventType, data)); err != nil {
		e.logger.Warn("Failed to append event", "player", p.Name, "event_type", eventType, "error", err)
	}
}

// ensureLocation recovers a player whose location no longer exists. It
// reports false when neither the location nor the start location exists.
func (e *Engine) ensureLocation() bool {
	p := e.player
	if _, ok := e.world.Location(p.CurrentLocationID); !ok {
		p.LeaveCombat()
		p.EndDialogue()
		start := e.world.StartLocation()
		if _, ok := e.world.Location(start); !ok {
			e.logger.Warn("Player location and start location not found",
				"player", p.Name, "location", p.CurrentLocationID, "start", start)
			return false
		}
		e.logger.Warn("Player location not found, moving to start",
			"player", p.Name, "location", p.CurrentLocationID, "start", start)
		p.MoveTo(start)
	}
	if p.CurrentMapType == actor.MapCity {
		if _, ok := e.world.City(p.CurrentCityID); !ok {
			e.logger.Warn("Player city not found, returning to zone map", "player", p.Name, "city", p.CurrentCityID)
			p.ExitCity()
		}
	}
	return true
}

// currentLocation returns the player's zone location.
func (e *Engine) currentLocation() *content.Location {
	loc, _ := e.world.Location(e.player.CurrentLocationID)
	return loc
}

// currentZone is the zone used for save eligibility.
func (e *Engine) currentZone() string {
	if e.player.InCity() {
		if c, ok := e.world.City(e.player.CurrentCityID); ok {
			return c.Zone
		}
	}
	if loc := e.currentLocation(); loc != nil {
		return loc.Zone
	}
	return ""
}
