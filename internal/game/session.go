// internal/game/session.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zheric/setgame/internal/models"
)

// ActionPublisher receives every logged action of a session, e.g. a Redis
// queue consumed by the historian.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec models.ActionRecord) error
}

// OnGameOverFunc handles a finished session, e.g. by persisting the result.
type OnGameOverFunc func(result models.GameResult)

// Session is the controller that owns one Game. It serializes intents from
// every connected client, turns engine results into events and keeps the
// per-player score.
type Session struct {
	ID        uuid.UUID
	Seed      int64
	Round     int // incremented by each restart
	CreatedAt time.Time
	StartedAt time.Time // start of the current round

	Players  []*models.Player
	GameOver bool
	Mu       sync.Mutex

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	// It is always called without the session lock held.
	BroadcastFn func(ev GameEvent)

	// Publisher receives the action log. If nil, actions are not recorded.
	Publisher ActionPublisher

	// OnGameOver is invoked once per round, after the lock is released.
	OnGameOver OnGameOverFunc

	Logger logrus.FieldLogger

	game        *Game
	actionIndex int
	pending     []GameEvent
	result      *models.GameResult
}

// NewSession builds a session over a deck shuffled with the given seed.
func NewSession(seed int64) *Session {
	id, _ := uuid.NewRandom()
	now := time.Now()
	return &Session{
		ID:        id,
		Seed:      seed,
		CreatedAt: now,
		StartedAt: now,
		Players:   []*models.Player{},
		Logger:    logrus.StandardLogger().WithField("game_id", id),
		game:      New(NewRandSource(seed)),
	}
}

// AddPlayer adds a player to the session or updates their connection if they
// already joined.
func (s *Session) AddPlayer(p *models.Player) {
	s.Mu.Lock()
	if existing := s.getPlayerByID(p.ID); existing != nil {
		existing.Conn = p.Conn
		existing.Connected = p.Connected
		s.Logger.WithField("player_id", p.ID).Info("player reconnected")
	} else {
		s.Players = append(s.Players, p)
		s.Logger.WithField("player_id", p.ID).Info("player joined")
	}
	s.logAction(p.ID, string(EventPlayerJoined), nil)
	s.queue(GameEvent{Type: EventPlayerJoined, User: userRef(p.ID)})
	s.queueState()
	events := s.takePending()
	s.Mu.Unlock()

	s.fire(events)
}

// HandleDisconnect marks a player as disconnected. Their score is kept.
func (s *Session) HandleDisconnect(playerID uuid.UUID) {
	s.Mu.Lock()
	p := s.getPlayerByID(playerID)
	if p == nil || !p.Connected {
		s.Mu.Unlock()
		return
	}
	p.Connected = false
	p.Conn = nil
	s.logAction(playerID, string(EventPlayerLeft), nil)
	s.queue(GameEvent{Type: EventPlayerLeft, User: userRef(playerID)})
	events := s.takePending()
	s.Mu.Unlock()

	s.fire(events)
}

// HandlePlayerAction applies one intent and returns the resulting snapshot.
// Actions that cannot apply (unknown card, empty deck, finished game) are
// reported with an action_ignored event, never as errors.
func (s *Session) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) GameState {
	s.Mu.Lock()
	s.ensurePlayer(playerID)

	switch {
	case s.GameOver && action.ActionType != models.ActionRestart:
		s.ignore(playerID, action.ActionType, "game is over")
	case action.ActionType == models.ActionSelect:
		if action.CardID == nil {
			s.ignore(playerID, action.ActionType, "missing card id")
			break
		}
		s.handleSelect(playerID, *action.CardID)
	case action.ActionType == models.ActionDeal:
		s.handleDeal(playerID)
	case action.ActionType == models.ActionRestart:
		s.handleRestart(playerID)
	default:
		s.ignore(playerID, action.ActionType, "unknown action type")
	}

	s.checkGameOver()
	s.queueState()
	state := s.stateLocked()
	events := s.takePending()
	result := s.result
	s.result = nil
	onOver := s.OnGameOver
	s.Mu.Unlock()

	s.fire(events)
	if result != nil && onOver != nil {
		onOver(*result)
	}
	return state
}

// Hint returns a set currently on the table, if one exists.
func (s *Session) Hint(playerID uuid.UUID) ([3]models.Card, bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	set, ok := s.game.Hint()
	s.logAction(playerID, "hint", map[string]interface{}{"found": ok})
	return set, ok
}

// handleSelect toggles a card. Assumes lock is held.
func (s *Session) handleSelect(playerID uuid.UUID, cardID int) {
	res := s.game.SelectCard(cardID)
	if !res.Toggled && len(res.Discarded) == 0 {
		s.ignore(playerID, models.ActionSelect, "card is not on the table")
		return
	}
	s.queueDiscarded(res.Discarded)
	if !res.Toggled {
		return
	}

	if res.Reset {
		s.queue(GameEvent{Type: EventSelectionReset, User: userRef(playerID)})
	}
	card, _ := s.game.Card(cardID)
	s.queue(GameEvent{
		Type:    EventCardSelected,
		User:    userRef(playerID),
		Cards:   []models.Card{card},
		Payload: map[string]interface{}{"selected": res.Selected},
	})
	s.logAction(playerID, models.ActionSelect, map[string]interface{}{
		"card_id":  cardID,
		"selected": res.Selected,
	})

	if !res.Evaluated {
		return
	}
	ids := make([]int, 0, len(res.Triple))
	for _, c := range res.Triple {
		ids = append(ids, c.ID)
	}
	if res.Matched {
		score := 0
		if p := s.getPlayerByID(playerID); p != nil {
			p.SetsFound++
			score = p.SetsFound
		}
		s.Logger.WithFields(logrus.Fields{
			"player_id": playerID,
			"cards":     ids,
			"sets":      score,
		}).Info("set found")
		s.queue(GameEvent{
			Type:    EventSetFound,
			User:    userRef(playerID),
			Cards:   res.Triple,
			Payload: map[string]interface{}{"setsFound": score},
		})
		s.logAction(playerID, string(EventSetFound), map[string]interface{}{"card_ids": ids})
		return
	}

	s.Logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"cards":     ids,
		"count":     res.Evaluation.Count,
		"shape":     res.Evaluation.Shape,
		"shading":   res.Evaluation.Shading,
		"color":     res.Evaluation.Color,
	}).Debug("selection is not a set")
	s.queue(GameEvent{
		Type:    EventSetMismatch,
		User:    userRef(playerID),
		Cards:   res.Triple,
		Payload: map[string]interface{}{"evaluation": res.Evaluation},
	})
	s.logAction(playerID, string(EventSetMismatch), map[string]interface{}{"card_ids": ids})
}

// handleDeal deals up to three cards. Assumes lock is held.
func (s *Session) handleDeal(playerID uuid.UUID) {
	res := s.game.DealMore()
	s.queueDiscarded(res.Discarded)
	if len(res.Dealt) == 0 {
		s.ignore(playerID, models.ActionDeal, "deck is empty")
		return
	}

	status := s.game.Status()
	s.Logger.Debugf("dealt %d cards, %d on the table, %d left in deck", len(res.Dealt), status.Dealt, status.Undealt)
	s.queue(GameEvent{
		Type:    EventCardsDealt,
		User:    userRef(playerID),
		Cards:   res.Dealt,
		Payload: map[string]interface{}{"undealtCount": status.Undealt},
	})
	s.logAction(playerID, models.ActionDeal, map[string]interface{}{
		"dealt":   len(res.Dealt),
		"undealt": status.Undealt,
	})
}

// handleRestart replaces the deck and resets every score. Assumes lock is held.
func (s *Session) handleRestart(playerID uuid.UUID) {
	s.game.Restart()
	s.Round++
	s.GameOver = false
	s.StartedAt = time.Now()
	for _, p := range s.Players {
		p.SetsFound = 0
	}
	s.Logger.WithField("round", s.Round).Info("game restarted")
	s.queue(GameEvent{
		Type:    EventGameRestart,
		User:    userRef(playerID),
		Payload: map[string]interface{}{"round": s.Round},
	})
	s.logAction(playerID, models.ActionRestart, map[string]interface{}{"round": s.Round})
}

// checkGameOver ends the round once the deck is empty and the table holds no
// set. Assumes lock is held.
func (s *Session) checkGameOver() {
	if s.GameOver {
		return
	}
	status := s.game.Status()
	if !status.Over {
		return
	}
	s.GameOver = true

	// the last set found is still on the table; no later intent will clear it
	s.queueDiscarded(s.game.DiscardMatched())
	status = s.game.Status()

	scores := s.scores()
	s.result = &models.GameResult{
		GameID:    s.ID,
		Seed:      s.Seed,
		Round:     s.Round,
		StartedAt: s.StartedAt,
		EndedAt:   time.Now(),
		Scores:    scores,
		Discarded: status.Discarded,
		Remaining: status.Dealt,
	}
	s.Logger.WithField("scores", scores).Info("game over")
	s.queue(GameEvent{
		Type:    EventGameOver,
		Payload: map[string]interface{}{"scores": scores},
	})
	s.logAction(uuid.Nil, string(EventGameOver), map[string]interface{}{"scores": scores})
}

func (s *Session) scores() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.Players))
	for _, p := range s.Players {
		out[p.ID] = p.SetsFound
	}
	return out
}

func (s *Session) ignore(playerID uuid.UUID, actionType, reason string) {
	s.Logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"action":    actionType,
	}).Debugf("ignoring action: %s", reason)
	s.queue(GameEvent{
		Type: EventActionIgnored,
		User: userRef(playerID),
		Payload: map[string]interface{}{
			"action": actionType,
			"reason": reason,
		},
	})
}

func (s *Session) queueDiscarded(cards []models.Card) {
	if len(cards) == 0 {
		return
	}
	s.queue(GameEvent{Type: EventCardsDiscarded, Cards: cards})
}

func (s *Session) queueState() {
	st := s.stateLocked()
	s.queue(GameEvent{Type: EventGameState, State: &st})
}

func (s *Session) queue(ev GameEvent) {
	s.pending = append(s.pending, ev)
}

func (s *Session) takePending() []GameEvent {
	out := s.pending
	s.pending = nil
	return out
}

// fire broadcasts queued events in order. Must be called without the lock.
func (s *Session) fire(events []GameEvent) {
	if s.BroadcastFn == nil {
		return
	}
	for _, ev := range events {
		s.BroadcastFn(ev)
	}
}

// ensurePlayer registers an unknown actor, e.g. one acting over plain HTTP.
func (s *Session) ensurePlayer(playerID uuid.UUID) {
	if playerID == uuid.Nil || s.getPlayerByID(playerID) != nil {
		return
	}
	s.Players = append(s.Players, &models.Player{ID: playerID})
}

func (s *Session) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// logAction appends to the action log and publishes asynchronously.
// Assumes lock is held.
func (s *Session) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	if s.Publisher == nil {
		return
	}
	record := models.ActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	pub := s.Publisher
	logger := s.Logger
	go func(rec models.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.PublishGameAction(ctx, rec); err != nil {
			logger.WithError(err).Warnf("failed to publish action %d", rec.ActionIndex)
		}
	}(record)
}
