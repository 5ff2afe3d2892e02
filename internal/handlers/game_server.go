// internal/handlers/game_server.go
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zheric/setgame/internal/game"
	"github.com/zheric/setgame/internal/models"
)

// ResultRecorder persists finished rounds, e.g. *database.DB.
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, res models.GameResult) error
}

// GameServer is a high-level struct that holds the live sessions and the
// optional backends every new session is wired to.
type GameServer struct {
	GameStore *game.GameStore
	Logger    *logrus.Logger

	// Publisher receives action records; nil disables the action log.
	Publisher game.ActionPublisher
	// Recorder stores results; nil disables persistence.
	Recorder ResultRecorder

	// OriginPatterns is passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GameServer{
		GameStore: game.NewGameStore(),
		Logger:    logger,
	}
}

// NewSession creates a session shuffled with seed, wires broadcast, publishing
// and result recording, and adds it to the store.
func (gs *GameServer) NewSession(seed int64) *game.Session {
	s := game.NewSession(seed)
	s.Logger = gs.Logger.WithField("game_id", s.ID)
	s.BroadcastFn = createBroadcastFunc(s, gs.Logger)
	if gs.Publisher != nil {
		s.Publisher = gs.Publisher
	}
	s.OnGameOver = gs.recordResult

	gs.GameStore.AddGame(s)
	s.Logger.WithField("seed", seed).Info("game created")
	return s
}

func (gs *GameServer) recordResult(res models.GameResult) {
	logger := gs.Logger.WithFields(logrus.Fields{"game_id": res.GameID, "round": res.Round})
	logger.WithField("scores", len(res.Scores)).Info("game over")
	if gs.Recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gs.Recorder.RecordGameResult(ctx, res); err != nil {
			logger.WithError(err).Error("failed to record game result")
		}
	}()
}

// lookup resolves a session by id string.
func (gs *GameServer) lookup(idStr string) (*game.Session, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errInvalidGameID
	}
	return gs.GameStore.Lookup(id)
}
