package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/scene"
	"github.com/jwebster45206/textland/pkg/storage"
)

// StarterCrateID is the start-room feature that receives a class's starter
// items.
const StarterCrateID = "worn_crate"

var (
	ErrUnknownSpecies = errors.New("unknown species")
	ErrUnknownClass   = errors.New("unknown class")
	ErrNoStore        = errors.New("no save store configured")
)

// CharacterRequest describes a new character.
type CharacterRequest struct {
	Name    string `json:"name"`
	Gender  string `json:"gender,omitempty"`
	Species string `json:"species"`
	Class   string `json:"class"`
}

// NewCharacter replaces the current player with a freshly created one in the
// start room and writes an initial save. Validation failures are returned as
// errors whose text is fit for the player.
func (e *Engine) NewCharacter(ctx context.Context, req CharacterRequest) (string, error) {
	if err := actor.ValidateName(req.Name); err != nil {
		return "", err
	}
	species, ok := e.world.FindSpecies(req.Species)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSpecies, req.Species)
	}
	class, ok := e.world.FindClass(req.Class)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, req.Class)
	}

	p := actor.NewPlayer(req.Name, req.Gender, species, class)
	start := e.world.StartLocation()
	p.MoveTo(start)
	e.player = p

	if loc, ok := e.world.Location(start); ok {
		if crate := loc.Features[StarterCrateID]; crate != nil && len(class.StarterItems) > 0 {
			crate.ContainsOnOpen = append(crate.ContainsOnOpen, class.StarterItems...)
		}
	} else {
		e.logger.Warn("Start location not found", "location", start)
	}

	e.logger.Info("Character created",
		"player", p.Name,
		"species", species.ID,
		"class", class.ID)
	e.logEvent(ctx, storage.EventCharacterCreated, map[string]any{
		"species": species.ID,
		"class":   class.ID,
	})
	// The first save happens wherever the character starts.
	if err := e.persist(ctx); err != nil && !errors.Is(err, ErrNoStore) {
		e.logger.Error("Failed initial save", "player", p.Name, "error", err)
	}

	t := &turn{ctx: ctx}
	if species.BackstoryIntro != "" {
		t.say(species.BackstoryIntro)
		t.say("")
	}
	t.sayf("Welcome, %s the %s %s!", p.Name, species.Name, class.Name)
	t.say("")
	e.look(t)
	return t.result().Message, nil
}

// LoadCharacter replaces the current player with a saved one. On failure the
// current player is left untouched.
func (e *Engine) LoadCharacter(ctx context.Context, name string) (string, error) {
	if e.store == nil {
		return "", ErrNoStore
	}
	p, err := e.store.LoadPlayer(ctx, name)
	if err != nil {
		if !errors.Is(err, storage.ErrCharacterNotFound) {
			e.logger.Error("Failed to load character", "name", name, "error", err)
		}
		return "", fmt.Errorf("failed to load character %q: %w", name, err)
	}
	p.GameActive = true
	e.player = p
	e.ensureLocation()
	p.RecalculateStats(e.world.Items)
	e.logger.Info("Character loaded", "player", p.Name, "location", p.CurrentLocationID)

	t := &turn{ctx: ctx}
	t.sayf("Welcome back, %s!", p.Name)
	t.say("")
	e.look(t)
	return t.result().Message, nil
}

// Save writes the player's progress. Saving is only allowed in a city zone.
// Failures are reported as a message and false, never as an error.
func (e *Engine) Save(ctx context.Context) (string, bool) {
	p := e.player
	if !p.GameActive {
		return "Game not active. Cannot save.", false
	}
	if e.store == nil {
		return "Saving is not available right now.", false
	}
	zone := e.currentZone()
	if !e.world.IsCityZone(zone) {
		return "You can only save your progress in a city.", false
	}
	if err := e.persist(ctx); err != nil {
		e.logger.Error("Failed to save player", "player", p.Name, "error", err)
		return "Something went wrong while saving. Your progress was not saved.", false
	}
	e.logEvent(ctx, storage.EventGameSaved, map[string]any{"zone": zone, "location_id": p.CurrentLocationID})
	return "Game saved.", true
}

func (e *Engine) persist(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.store.SavePlayer(ctx, e.player); err != nil {
		return fmt.Errorf("failed to save player %q: %w", e.player.Name, err)
	}
	return nil
}

// Scene assembles the current scene.
func (e *Engine) Scene() *scene.Scene {
	return scene.Build(e.world, e.player)
}

// CharacterChoices lists the species and class IDs offered at creation.
func (e *Engine) CharacterChoices() (species, classes []string) {
	for id := range e.world.Species {
		species = append(species, id)
	}
	for id := range e.world.Classes {
		classes = append(classes, id)
	}
	slices.Sort(species)
	slices.Sort(classes)
	return species, classes
}

// IsNameError reports whether err is a character name validation failure.
func IsNameError(err error) bool {
	for _, target := range []error{actor.ErrNameEmpty, actor.ErrNameTooLong, actor.ErrNameInvalid, actor.ErrNameAllDigit} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsCreationError reports whether err came from bad character input rather
// than infrastructure.
func IsCreationError(err error) bool {
	return IsNameError(err) || errors.Is(err, ErrUnknownSpecies) || errors.Is(err, ErrUnknownClass)
}
