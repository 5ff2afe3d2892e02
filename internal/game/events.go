// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/zheric/setgame/internal/models"
)

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventGameState      GameEventType = "game_state"      // full snapshot after every intent
	EventCardSelected   GameEventType = "card_selected"   // a dealt card was toggled
	EventSelectionReset GameEventType = "selection_reset" // a full unmatched triple was cleared
	EventSetFound       GameEventType = "set_found"       // three selected cards form a set
	EventSetMismatch    GameEventType = "set_mismatch"    // three selected cards do not form a set
	EventCardsDiscarded GameEventType = "cards_discarded" // matched cards left the table
	EventCardsDealt     GameEventType = "cards_dealt"     // cards moved from the deck to the table
	EventGameRestart    GameEventType = "game_restart"    // new deck, all piles reset
	EventGameOver       GameEventType = "game_over"       // deck empty and no set left on the table
	EventPlayerJoined   GameEventType = "player_joined"   // a player connected to the session
	EventPlayerLeft     GameEventType = "player_left"     // a player disconnected
	EventActionIgnored  GameEventType = "action_ignored"  // intent had no effect (unknown or undealt card)
)

// EventUser identifies the player an event is about.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// GameEvent holds data about an event broadcast to every client of a session.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Cards   []models.Card          `json:"cards,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *GameState             `json:"state,omitempty"`
}

func userRef(id uuid.UUID) *EventUser {
	if id == uuid.Nil {
		return nil
	}
	return &EventUser{ID: id}
}
