package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/textland/internal/middleware"
	"github.com/jwebster45206/textland/internal/session"
	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/engine"
	"github.com/jwebster45206/textland/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testWorld() *content.World {
	w := content.NewWorld(content.WithStartLocation("gate"), content.WithCityZones([]string{"Town"}))

	elf := actor.Species{ID: "elf", Name: "Elf"}
	elf.StatBonuses.HP = 2
	w.Species["elf"] = elf

	rogue := actor.Class{ID: "rogue", Name: "Rogue"}
	rogue.BaseStats.HP = 30
	rogue.BaseStats.AttackPower = 7
	w.Classes["rogue"] = rogue

	w.Locations["gate"] = &content.Location{
		ID:          "gate",
		Name:        "Town Gate",
		Zone:        "Town",
		Description: "A weathered gate.",
		Exits:       map[string]string{"north": "road"},
		NPCs:        map[string]*actor.NPC{},
		Features:    map[string]*content.Feature{},
	}
	w.Locations["road"] = &content.Location{
		ID:       "road",
		Name:     "Muddy Road",
		Zone:     "Wilds",
		Exits:    map[string]string{"south": "gate"},
		NPCs:     map[string]*actor.NPC{},
		Features: map[string]*content.Feature{},
	}
	return w
}

type testServer struct {
	handler  http.Handler
	sessions *session.Manager
	store    *storage.MockStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := testLogger()
	store := storage.NewMockStore()
	sessions := session.NewManager(func() (*engine.Engine, error) {
		return engine.New(testWorld(), logger, engine.WithStore(store)), nil
	}, logger)

	mux := http.NewServeMux()
	mux.Handle("/health", NewHealthHandler(store, sessions, logger))
	game := NewGameHandler(sessions, logger)
	mux.Handle("/v1/game", game)
	mux.Handle("/v1/game/", game)
	chars := NewCharactersHandler(store, testWorld(), logger)
	mux.Handle("/v1/characters", chars)
	mux.Handle("/v1/characters/", chars)
	catalog := NewCatalogHandler(testWorld(), logger)
	mux.Handle("/v1/species", catalog)
	mux.Handle("/v1/classes", catalog)

	return &testServer{handler: mux, sessions: sessions, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, r)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func (s *testServer) newGame(t *testing.T, name string) GameResponse {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/v1/game",
		`{"character":{"name":"`+name+`","species":"elf","class":"rogue"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[GameResponse](t, rr)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedHealth string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"storage down", errors.New("connection failed"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.store.SetPingError(tt.pingErr)

			rr := s.do(t, http.MethodGet, "/health", "")
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			resp := decode[HealthResponse](t, rr)
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "textland", resp.Service)
			assert.Equal(t, float64(0), resp.Components["sessions"])
		})
	}
}

func TestErrorLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	store := storage.NewMockStore()
	store.SetPingError(errors.New("connection failed"))

	h := middleware.Logger(NewHealthHandler(store, nil, log), log)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, buf.String(), `msg="Storage health check failed" request_id=req-42 error="connection failed"`)
}

func TestGameHandler_Create(t *testing.T) {
	s := newTestServer(t)

	resp := s.newGame(t, "Rook")
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Contains(t, resp.Message, "Welcome, Rook the Elf Rogue!")
	require.NotNil(t, resp.Scene)
	assert.True(t, resp.Scene.Active)
	assert.Equal(t, "gate", resp.Scene.LocationID)
	assert.Equal(t, 32, resp.Scene.Player.MaxHP)
	assert.Equal(t, 1, s.sessions.Len())
	// New characters get an initial save.
	assert.Equal(t, 1, s.store.SaveCount())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{"character":`, http.StatusBadRequest},
		{"bad name", `{"character":{"name":"1234","species":"elf","class":"rogue"}}`, http.StatusBadRequest},
		{"bad species", `{"character":{"name":"Wren","species":"dragon","class":"rogue"}}`, http.StatusBadRequest},
		{"both", `{"character":{"name":"Wren","species":"elf","class":"rogue"},"load":"Wren"}`, http.StatusBadRequest},
		{"unknown save", `{"load":"Nobody"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/v1/game", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rr).Error)
		})
	}
	// Failed creates don't leak sessions.
	assert.Equal(t, 1, s.sessions.Len())

	rr := s.do(t, http.MethodPost, "/v1/game", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.False(t, decode[GameResponse](t, rr).Scene.Active)
}

func TestGameHandler_CommandAndSave(t *testing.T) {
	s := newTestServer(t)
	game := s.newGame(t, "Rook")
	base := "/v1/game/" + game.ID.String()

	rr := s.do(t, http.MethodPost, base+"/save", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[SaveResponse](t, rr).Saved)

	rr = s.do(t, http.MethodPost, base+"/command", `{"command":"go north"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	cmd := decode[CommandResponse](t, rr)
	assert.Equal(t, "road", cmd.Scene.LocationID)
	assert.False(t, cmd.Scene.CanSave)

	rr = s.do(t, http.MethodPost, base+"/save", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	save := decode[SaveResponse](t, rr)
	assert.False(t, save.Saved)
	assert.Equal(t, "You can only save your progress in a city.", save.Message)

	rr = s.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Muddy Road", decode[GameResponse](t, rr).Scene.LocationName)

	rr = s.do(t, http.MethodPost, base+"/command", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, base+"/command", `{"command":"quit"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[CommandResponse](t, rr).Quit)

	rr = s.do(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGameHandler_Load(t *testing.T) {
	s := newTestServer(t)
	s.newGame(t, "Rook")

	rr := s.do(t, http.MethodPost, "/v1/game", `{"load":"Rook"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decode[GameResponse](t, rr)
	assert.Contains(t, resp.Message, "Welcome back, Rook!")
	assert.Equal(t, "Rook", resp.Scene.Player.Name)
	assert.Equal(t, 2, s.sessions.Len())
}

func TestGameHandler_BadRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"list games", http.MethodGet, "/v1/game", http.StatusMethodNotAllowed},
		{"bad id", http.MethodGet, "/v1/game/not-a-uuid", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/game/" + uuid.New().String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, tt.method, tt.path, "")
			assert.Equal(t, tt.status, rr.Code)
		})
	}

	game := s.newGame(t, "Rook")
	rr := s.do(t, http.MethodPut, "/v1/game/"+game.ID.String(), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestGameHandler_WebSocket(t *testing.T) {
	s := newTestServer(t)
	game := s.newGame(t, "Rook")

	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/game/" + game.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(CommandRequest{Command: "north"}))
	var resp CommandResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "road", resp.Scene.LocationID)

	require.NoError(t, conn.WriteJSON(CommandRequest{Command: "quit"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.True(t, resp.Quit)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestCharactersHandler(t *testing.T) {
	s := newTestServer(t)
	s.newGame(t, "Rook")

	orphan := actor.NewDefaultPlayer()
	orphan.Name = "Wren"
	orphan.Species = "gnome"
	require.NoError(t, s.store.SavePlayer(t.Context(), orphan))

	rr := s.do(t, http.MethodGet, "/v1/characters", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]CharacterInfo](t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, CharacterInfo{Name: "Rook", Key: "Rook", Species: "Elf", Class: "Rogue", Level: 1}, list[0])
	assert.Equal(t, "N/A", list[1].Species)
	assert.Equal(t, "N/A", list[1].Class)

	rr = s.do(t, http.MethodGet, "/v1/characters/Rook/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]storage.Event](t, rr)
	require.NotEmpty(t, events)
	assert.Equal(t, storage.EventCharacterCreated, events[0].Type)

	rr = s.do(t, http.MethodGet, "/v1/characters/Nobody/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	rr = s.do(t, http.MethodDelete, "/v1/characters/Rook", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodDelete, "/v1/characters/Rook", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodPost, "/v1/characters", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCatalogHandler(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/v1/species", "")
	require.Equal(t, http.StatusOK, rr.Code)
	species := decode[[]actor.Species](t, rr)
	require.Len(t, species, 1)
	assert.Equal(t, "Elf", species[0].Name)

	rr = s.do(t, http.MethodGet, "/v1/classes", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Rogue"`)

	rr = s.do(t, http.MethodPost, "/v1/classes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
