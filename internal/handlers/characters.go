package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/storage"
)

// CharacterInfo is a saved character as listed to players.
type CharacterInfo struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Species string `json:"species"`
	Class   string `json:"class"`
	Level   int    `json:"level"`
}

// CharactersHandler manages saved characters.
// Routes:
// GET /v1/characters                 - List saved characters
// GET /v1/characters/{name}/events   - Read a character's event log
// DELETE /v1/characters/{name}       - Delete a character and its events
type CharactersHandler struct {
	store  storage.Store
	world  *content.World
	logger *slog.Logger
}

func NewCharactersHandler(store storage.Store, world *content.World, logger *slog.Logger) *CharactersHandler {
	return &CharactersHandler{store: store, world: world, logger: logger}
}

func (h *CharactersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")
	name, sub, _ := strings.Cut(path, "/")

	switch {
	case name == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case name != "" && sub == "events" && r.Method == http.MethodGet:
		h.handleEvents(w, r, name)
	case name != "" && sub == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, name)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *CharactersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListCharacters(r.Context())
	if err != nil {
		errorLog(r, h.logger, err).Error("Failed to list characters")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list characters")
		return
	}
	out := make([]CharacterInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, CharacterInfo{
			Name:    s.Name,
			Key:     s.Key,
			Species: h.world.SpeciesName(s.Species),
			Class:   h.world.ClassName(s.Class),
			Level:   s.Level,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *CharactersHandler) handleEvents(w http.ResponseWriter, r *http.Request, name string) {
	events, err := h.store.Events(r.Context(), name)
	if err != nil {
		errorLog(r, h.logger, err).Error("Failed to read events", "character", name)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read events")
		return
	}
	if events == nil {
		events = []storage.Event{}
	}
	writeJSON(w, h.logger, http.StatusOK, events)
}

func (h *CharactersHandler) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.DeleteCharacter(r.Context(), name); err != nil {
		if errors.Is(err, storage.ErrCharacterNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Character not found")
			return
		}
		errorLog(r, h.logger, err).Error("Failed to delete character", "character", name)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete character")
		return
	}
	h.logger.Info("Character deleted", "character", name)
	w.WriteHeader(http.StatusNoContent)
}
