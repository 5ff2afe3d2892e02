package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is a participant in a game session. Set games are cooperative or
// competitive by score; SetsFound counts the sets this player completed.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
	SetsFound int             `json:"setsFound"`
}
