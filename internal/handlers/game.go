package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/textland/internal/session"
	"github.com/jwebster45206/textland/pkg/engine"
	"github.com/jwebster45206/textland/pkg/scene"
	"github.com/jwebster45206/textland/pkg/storage"
)

// CreateGameRequest starts a session. Set Character to create a new
// character or Load to resume a saved one; with neither the session starts
// inactive.
type CreateGameRequest struct {
	Character *engine.CharacterRequest `json:"character,omitempty"`
	Load      string                   `json:"load,omitempty"`
}

// GameResponse is returned when a session is created or read.
type GameResponse struct {
	ID      uuid.UUID    `json:"id"`
	Message string       `json:"message,omitempty"`
	Scene   *scene.Scene `json:"scene"`
}

type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse is the outcome of one command plus the scene after it.
type CommandResponse struct {
	Message  string       `json:"message"`
	MapLines []string     `json:"map_lines,omitempty"`
	Quit     bool         `json:"quit,omitempty"`
	Scene    *scene.Scene `json:"scene"`
}

type SaveResponse struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

// GameHandler serves play sessions.
// Routes:
// POST /v1/game               - Start a session (new or loaded character)
// GET /v1/game/{id}           - Read the current scene
// POST /v1/game/{id}/command  - Run one command
// POST /v1/game/{id}/save     - Save progress
// GET /v1/game/{id}/ws        - Websocket command stream
// DELETE /v1/game/{id}        - End the session
type GameHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewGameHandler(sessions *session.Manager, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/game"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, sub, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		errorLog(r, h.logger, err).Warn("Invalid session ID", "id", idStr)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.handleRead(w, sess)
	case sub == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, sess)
	case sub == "command" && r.Method == http.MethodPost:
		h.handleCommand(w, r, sess)
	case sub == "save" && r.Method == http.MethodPost:
		h.handleSave(w, r, sess)
	case sub == "ws" && r.Method == http.MethodGet:
		h.handleWebSocket(w, r, sess)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		errorLog(r, h.logger, err).Warn("Invalid create request")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Character != nil && req.Load != "" {
		writeError(w, h.logger, http.StatusBadRequest, "Set either character or load, not both")
		return
	}

	sess, err := h.sessions.Create()
	if err != nil {
		errorLog(r, h.logger, err).Error("Failed to create session")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	var resp GameResponse
	status, errMsg := http.StatusCreated, ""
	_ = sess.Do(func(e *engine.Engine) error {
		var err error
		switch {
		case req.Character != nil:
			resp.Message, err = e.NewCharacter(r.Context(), *req.Character)
			if err != nil {
				if engine.IsCreationError(err) {
					status, errMsg = http.StatusBadRequest, err.Error()
				} else {
					errorLog(r, h.logger, err).Error("Failed to create character")
					status, errMsg = http.StatusInternalServerError, "Failed to create character"
				}
			}
		case req.Load != "":
			resp.Message, err = e.LoadCharacter(r.Context(), req.Load)
			if err != nil {
				if errors.Is(err, storage.ErrCharacterNotFound) {
					status, errMsg = http.StatusNotFound, "Character not found"
				} else {
					errorLog(r, h.logger, err).Error("Failed to load character", "name", req.Load)
					status, errMsg = http.StatusInternalServerError, "Failed to load character"
				}
			}
		}
		resp.Scene = e.Scene()
		return nil
	})

	if errMsg != "" {
		_ = h.sessions.Delete(sess.ID)
		writeError(w, h.logger, status, errMsg)
		return
	}
	resp.ID = sess.ID
	h.logger.Info("Game session started", "session_id", sess.ID, "player", resp.Scene.Player.Name)
	writeJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, sess *session.Session) {
	resp := GameResponse{ID: sess.ID}
	_ = sess.Do(func(e *engine.Engine) error {
		resp.Scene = e.Scene()
		return nil
	})
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, sess *session.Session) {
	if err := h.sessions.Delete(sess.ID); err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) handleCommand(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.run(r, sess, req.Command))
}

func (h *GameHandler) handleSave(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var resp SaveResponse
	_ = sess.Do(func(e *engine.Engine) error {
		resp.Message, resp.Saved = e.Save(r.Context())
		return nil
	})
	status := http.StatusOK
	if !resp.Saved {
		status = http.StatusConflict
	}
	writeJSON(w, h.logger, status, resp)
}

func (h *GameHandler) run(r *http.Request, sess *session.Session, input string) CommandResponse {
	var resp CommandResponse
	_ = sess.Do(func(e *engine.Engine) error {
		res := e.Execute(r.Context(), input)
		resp = CommandResponse{
			Message:  res.Message,
			MapLines: res.MapLines,
			Quit:     res.Quit,
			Scene:    e.Scene(),
		}
		return nil
	})
	return resp
}

// handleWebSocket reads CommandRequest frames and answers each with a
// CommandResponse until the client disconnects or quits.
func (h *GameHandler) handleWebSocket(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		errorLog(r, h.logger, err).Warn("Websocket upgrade failed", "session_id", sess.ID)
		return
	}
	defer conn.Close()
	h.logger.Debug("Websocket connected", "session_id", sess.ID)

	for {
		var req CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				errorLog(r, h.logger, err).Warn("Websocket read failed", "session_id", sess.ID)
			}
			return
		}
		resp := h.run(r, sess, req.Command)
		if err := conn.WriteJSON(resp); err != nil {
			errorLog(r, h.logger, err).Warn("Websocket write failed", "session_id", sess.ID)
			return
		}
		if resp.Quit {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "farewell"))
			return
		}
	}
}
