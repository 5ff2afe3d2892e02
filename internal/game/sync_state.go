// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/zheric/setgame/internal/models"
)

// PlayerState is the public view of one player in a session.
type PlayerState struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Connected bool      `json:"connected"`
	SetsFound int       `json:"setsFound"`
}

// GameState is the snapshot sent to clients. The undealt pile is reported by
// size only so clients cannot see the upcoming deal order.
type GameState struct {
	GameID       uuid.UUID     `json:"game_id"`
	Round        int           `json:"round"`
	Dealt        []models.Card `json:"dealt"`
	Discarded    []models.Card `json:"discarded"`
	UndealtCount int           `json:"undealtCount"`
	Status       Status        `json:"status"`
	Players      []PlayerState `json:"players"`
	GameOver     bool          `json:"gameOver"`
}

// State returns a snapshot of the session.
func (s *Session) State() GameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.stateLocked()
}

// stateLocked builds the snapshot. Assumes lock is held.
func (s *Session) stateLocked() GameState {
	status := s.game.Status()
	st := GameState{
		GameID:       s.ID,
		Round:        s.Round,
		Dealt:        s.game.DealtCards(),
		Discarded:    s.game.DiscardedCards(),
		UndealtCount: status.Undealt,
		Status:       status,
		Players:      make([]PlayerState, 0, len(s.Players)),
		GameOver:     s.GameOver,
	}
	for _, p := range s.Players {
		st.Players = append(st.Players, PlayerState{
			PlayerID:  p.ID,
			Connected: p.Connected,
			SetsFound: p.SetsFound,
		})
	}
	return st
}
