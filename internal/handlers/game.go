// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zheric/setgame/internal/models"
)

type gameSummary struct {
	GameID    uuid.UUID `json:"game_id"`
	Round     int       `json:"round"`
	Players   int       `json:"players"`
	GameOver  bool      `json:"gameOver"`
	CreatedAt time.Time `json:"createdAt"`
}

type selectRequest struct {
	ID *int `json:"id"`
}

// CreateGameHandler handles POST /game/create[?seed=N].
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	seed := time.Now().UnixNano()
	if raw := r.URL.Query().Get("seed"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid seed", http.StatusBadRequest)
			return
		}
		seed = n
	}

	playerID, err := EnsureGuest(w, r)
	if err != nil {
		gs.Logger.WithError(err).Error("failed to ensure guest")
		http.Error(w, "could not create guest", http.StatusInternalServerError)
		return
	}

	s := gs.NewSession(seed)
	s.Logger.WithField("player_id", playerID).Debug("created over HTTP")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"game_id": s.ID,
	})
}

// ListGamesHandler handles GET /game.
func (gs *GameServer) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	sessions := gs.GameStore.ListGames()
	out := make([]gameSummary, 0, len(sessions))
	for _, s := range sessions {
		st := s.State()
		out = append(out, gameSummary{
			GameID:    s.ID,
			Round:     st.Round,
			Players:   len(st.Players),
			GameOver:  st.GameOver,
			CreatedAt: s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GameStateHandler handles GET /game/{id}.
func (gs *GameServer) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	s, err := gs.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// SelectHandler handles POST /game/{id}/select with body {"id": N}.
func (gs *GameServer) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == nil {
		http.Error(w, "invalid select payload", http.StatusBadRequest)
		return
	}
	gs.applyAction(w, r, models.GameAction{ActionType: models.ActionSelect, CardID: req.ID})
}

// DealHandler handles POST /game/{id}/deal.
func (gs *GameServer) DealHandler(w http.ResponseWriter, r *http.Request) {
	gs.applyAction(w, r, models.GameAction{ActionType: models.ActionDeal})
}

// RestartHandler handles POST /game/{id}/restart.
func (gs *GameServer) RestartHandler(w http.ResponseWriter, r *http.Request) {
	gs.applyAction(w, r, models.GameAction{ActionType: models.ActionRestart})
}

func (gs *GameServer) applyAction(w http.ResponseWriter, r *http.Request, action models.GameAction) {
	s, err := gs.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	playerID, err := EnsureGuest(w, r)
	if err != nil {
		gs.Logger.WithError(err).Error("failed to ensure guest")
		http.Error(w, "could not create guest", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.HandlePlayerAction(playerID, action))
}

// HintHandler handles GET /game/{id}/hint. Responds 404 when no set is on the table.
func (gs *GameServer) HintHandler(w http.ResponseWriter, r *http.Request) {
	s, err := gs.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	playerID, err := EnsureGuest(w, r)
	if err != nil {
		http.Error(w, "could not create guest", http.StatusInternalServerError)
		return
	}
	set, ok := s.Hint(playerID)
	if !ok {
		http.Error(w, "no set on the table", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": set[:],
	})
}

// DeleteGameHandler handles DELETE /game/{id}: connected clients are closed
// and the session is dropped.
func (gs *GameServer) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	s, err := gs.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	gs.GameStore.DeleteGame(s.ID)

	s.Mu.Lock()
	var conns []*websocket.Conn
	for _, p := range s.Players {
		if p.Conn != nil {
			conns = append(conns, p.Conn)
		}
	}
	s.Mu.Unlock()
	for _, c := range conns {
		c.Close(GameRemovedError, "game was removed")
	}

	s.Logger.Info("game deleted")
	w.WriteHeader(http.StatusNoContent)
}
