package models

import "github.com/google/uuid"

// Action types accepted by a game session.
const (
	ActionSelect  = "action_select"
	ActionDeal    = "action_deal"
	ActionRestart = "action_restart"
)

// GameAction captures a player's in-game move.
// CardID is only meaningful for ActionSelect.
type GameAction struct {
	ActionType string `json:"action_type"`
	CardID     *int   `json:"card_id,omitempty"`
}

// ActionRecord is one entry in a game's action log. Records are queued in
// Redis by the game server and persisted by the historian.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
