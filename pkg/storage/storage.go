package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/textland/pkg/actor"
)

// ErrCharacterNotFound is returned when no save exists for a character.
var ErrCharacterNotFound = errors.New("character not found")

// Event types written to a character's event log.
const (
	EventItemAcquisition       = "item_acquisition"
	EventItemRemoval           = "item_removal"
	EventItemEquipped          = "item_equipped"
	EventItemUnequipped        = "item_unequipped"
	EventItemPurchased         = "item_purchased"
	EventCurrencyGained        = "currency_gained"
	EventCurrencySpent         = "currency_spent"
	EventXPGained              = "xp_gained"
	EventLevelUp               = "level_up"
	EventNPCDefeated           = "npc_defeated"
	EventNPCLootDropped        = "npc_loot_dropped"
	EventCrateContentsRevealed = "crate_contents_revealed"
	EventFeatureItemRevealed   = "feature_item_revealed"
	EventFeatureUnlocked       = "feature_unlocked"
	EventQuestTurnedIn         = "quest_turned_in"
	EventPlayerDefeated        = "player_defeated"
	EventCharacterCreated      = "character_created"
	EventGameSaved             = "game_saved"
)

// Event is one append-only record of something that happened to a character.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with a fresh ID and the current UTC time.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Data:      data,
	}
}

// CharacterSummary describes a saved character for listings. Species and
// Class hold IDs; callers resolve display names.
type CharacterSummary struct {
	Name    string `json:"name"`
	Key     string `json:"key"` // Sanitized storage key
	Species string `json:"species,omitempty"`
	Class   string `json:"class,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// SaveStore persists one save slot per character.
type SaveStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	SavePlayer(ctx context.Context, p *actor.Player) error
	LoadPlayer(ctx context.Context, name string) (*actor.Player, error)
	ListCharacters(ctx context.Context) ([]CharacterSummary, error)
	DeleteCharacter(ctx context.Context, name string) error
}

// EventLog appends events to a character's history.
type EventLog interface {
	AppendEvent(ctx context.Context, character string, ev Event) error
	Events(ctx context.Context, character string) ([]Event, error)
}

// Store is a save store that also keeps the event log.
type Store interface {
	SaveStore
	EventLog
}

var unsafeNameChars = regexp.MustCompile(`[^-\w.]`)

// SanitizeName turns a character name into a storage key: trimmed, spaces
// replaced by underscores, and anything outside [-\w.] removed. A name that
// sanitizes to nothing becomes "invalid_name".
func SanitizeName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	s = unsafeNameChars.ReplaceAllString(s, "")
	if s == "" || s == "." || s == ".." {
		return "invalid_name"
	}
	return s
}
