package handlers

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/content"
)

// CatalogHandler serves the species and classes offered at character
// creation.
// Routes:
// GET /v1/species
// GET /v1/classes
type CatalogHandler struct {
	world  *content.World
	logger *slog.Logger
}

func NewCatalogHandler(world *content.World, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{world: world, logger: logger}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	switch r.URL.Path {
	case "/v1/species":
		out := make([]actor.Species, 0, len(h.world.Species))
		for _, id := range slices.Sorted(maps.Keys(h.world.Species)) {
			out = append(out, h.world.Species[id])
		}
		writeJSON(w, h.logger, http.StatusOK, out)
	case "/v1/classes":
		out := make([]actor.Class, 0, len(h.world.Classes))
		for _, id := range slices.Sorted(maps.Keys(h.world.Classes)) {
			out = append(out, h.world.Classes[id])
		}
		writeJSON(w, h.logger, http.StatusOK, out)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}
