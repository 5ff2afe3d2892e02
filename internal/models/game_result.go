package models

import (
	"time"

	"github.com/google/uuid"
)

// GameResult is the summary stored when a session finishes: the deck seed
// (enough to replay the deal order) and how many sets each player found.
type GameResult struct {
	GameID    uuid.UUID         `json:"game_id"`
	Seed      int64             `json:"seed"`
	Round     int               `json:"round"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Scores    map[uuid.UUID]int `json:"scores"`
	Discarded int               `json:"discarded"`
	Remaining int               `json:"remaining"` // cards left on the table
}
