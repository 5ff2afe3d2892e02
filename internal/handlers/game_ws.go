// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zheric/setgame/internal/game"
	"github.com/zheric/setgame/internal/middleware"
	"github.com/zheric/setgame/internal/models"
)

const writeTimeout = 3 * time.Second

// GameMessage represents the structure for incoming WebSocket messages.
type GameMessage struct {
	Type string `json:"type"`

	// Card identifies the card for action_select, e.g. {"id": 12}.
	Card *struct {
		ID *int `json:"id"`
	} `json:"card,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a specific game,
// registers the guest as a player and runs the read loop until the client leaves.
func GameWSHandler(gs *GameServer) http.HandlerFunc {
	logger := gs.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := gs.lookup(chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err)
			return
		}

		// The cookie has to be set before the upgrade response is written.
		playerID, err := EnsureGuest(w, r)
		if err != nil {
			logger.WithError(err).Warn("guest authentication failed")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: gs.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", s.ID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error during handler exit")

		if c.Subprotocol() != "game" {
			logger.Warnf("client for game %s connected with invalid subprotocol: %q", s.ID, c.Subprotocol())
			c.Close(BadSubprotocolError, "client must use the 'game' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r, s.ID, playerID)

		s.AddPlayer(&models.Player{ID: playerID, Connected: true, Conn: c})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		err = readGameMessages(ctx, c, s, playerID, logger)

		s.HandleDisconnect(playerID)
		middleware.LogWebSocketDisconnect(logger, r, s.ID, playerID, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// createBroadcastFunc returns a function suitable for Session.BroadcastFn.
// Sessions call it without their lock held, so it may take the lock to
// snapshot connections.
func createBroadcastFunc(s *game.Session, logger *logrus.Logger) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		s.Mu.Lock()
		conns := make(map[uuid.UUID]*websocket.Conn, len(s.Players))
		for _, p := range s.Players {
			if p.Connected && p.Conn != nil {
				conns[p.ID] = p.Conn
			}
		}
		s.Mu.Unlock()
		if len(conns) == 0 {
			return
		}

		data := game.EncodeEvent(ev)
		for playerID, conn := range conns {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithFields(logrus.Fields{
					"game_id":   s.ID,
					"player_id": playerID,
				}).Warnf("failed to write %s event: %v", ev.Type, err)
			}
		}
	}
}

// readGameMessages reads client messages and routes them to the session until
// the connection closes. It returns nil on a normal closure.
func readGameMessages(ctx context.Context, c *websocket.Conn, s *game.Session, playerID uuid.UUID, logger *logrus.Logger) error {
	log := logger.WithFields(logrus.Fields{"game_id": s.ID, "player_id": playerID})
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("invalid JSON: %v", err)
			sendWsError(ctx, c, "invalid JSON format")
			continue
		}
		log.Debugf("received %s", msg.Type)

		switch msg.Type {
		case models.ActionSelect:
			if msg.Card == nil || msg.Card.ID == nil {
				sendWsError(ctx, c, "action_select requires card.id")
				continue
			}
			s.HandlePlayerAction(playerID, models.GameAction{ActionType: msg.Type, CardID: msg.Card.ID})
		case models.ActionDeal, models.ActionRestart:
			s.HandlePlayerAction(playerID, models.GameAction{ActionType: msg.Type})
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})
		default:
			sendWsError(ctx, c, fmt.Sprintf("unknown action type: %s", msg.Type))
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client with a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal WebSocket message")
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		// the read loop notices closed connections
		logrus.WithError(err).Debug("failed to write WebSocket message")
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
