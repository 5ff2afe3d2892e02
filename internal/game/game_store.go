package game

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrGameNotFound is returned when no session exists for an ID.
var ErrGameNotFound = errors.New("game not found")

// GameStore keeps the live sessions in memory.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Session
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*Session),
	}
}

func (s *GameStore) AddGame(game *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
}

func (s *GameStore) GetGame(id uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// Lookup is GetGame with an error for callers that propagate failures.
func (s *GameStore) Lookup(id uuid.UUID) (*Session, error) {
	g, ok := s.GetGame(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// ListGames returns the sessions ordered by creation time, oldest first.
func (s *GameStore) ListGames() []*Session {
	s.mu.Lock()
	out := make([]*Session, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
