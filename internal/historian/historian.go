// internal/historian/historian.go pops action records off the Redis queue and persists them to Postgres in batches.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zheric/setgame/internal/cache"
	"github.com/zheric/setgame/internal/game"
	"github.com/zheric/setgame/internal/models"
)

// Queue yields raw encoded action records. Pop returns nil data and no error when
// the timeout elapses with nothing queued.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Store persists batches and marks idle games.
type Store interface {
	InsertGameActions(ctx context.Context, records []models.ActionRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Options tunes batching. Zero fields fall back to defaults.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration // idle time before an in-progress game is marked abandoned
	SweepInterval time.Duration
	PopTimeout    time.Duration
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 10 * time.Minute
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = 3 * time.Second
	}
}

var gameOverAction = string(game.EventGameOver)

// Service batches records from a Queue into a Store.
type Service struct {
	queue  Queue
	store  Store
	opts   Options
	logger logrus.FieldLogger

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu sync.Mutex
	batch   []models.ActionRecord

	now func() time.Time
}

// NewService builds a historian over the given queue and store.
func NewService(queue Queue, store Store, opts Options, logger logrus.FieldLogger) *Service {
	opts.applyDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		queue:  queue,
		store:  store,
		opts:   opts,
		logger: logger,
		batch:  make([]models.ActionRecord, 0, opts.BatchSize),
		now:    time.Now,
	}
}

// Run starts the read, flush and inactivity loops and blocks until ctx is cancelled.
// Whatever is still buffered is flushed before returning.
func (hs *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); hs.readLoop(ctx) }()
	go func() { defer wg.Done(); hs.flushLoop(ctx) }()
	go func() { defer wg.Done(); hs.inactivityLoop(ctx) }()

	hs.logger.Info("historian started")
	<-ctx.Done()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hs.Flush(flushCtx)
	hs.logger.Info("historian shut down")
}

func (hs *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		data, err := hs.queue.Pop(ctx, hs.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			hs.logger.WithError(err).Error("queue pop failed")
			// back off so a dead Redis doesn't spin
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if data == nil {
			continue
		}

		rec, err := cache.DecodeRecord(data)
		if err != nil {
			hs.logger.WithError(err).Warn("dropping record")
			continue
		}
		hs.Append(ctx, rec)
	}
}

func (hs *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.Flush(ctx)
		}
	}
}

func (hs *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.SweepInactive(ctx)
		}
	}
}

// Append buffers a record, tracks game activity and flushes once the batch is full.
// A game_over record ends activity tracking for that game.
func (hs *Service) Append(ctx context.Context, rec models.ActionRecord) {
	if rec.ActionType == gameOverAction {
		hs.lastActivity.Delete(rec.GameID)
	} else {
		hs.lastActivity.Store(rec.GameID, hs.now())
	}

	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.batch = append(hs.batch, rec)
	if len(hs.batch) >= hs.opts.BatchSize {
		hs.flushLocked(ctx)
	}
}

// Flush writes the buffered batch to the store.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushLocked(ctx)
}

func (hs *Service) flushLocked(ctx context.Context) {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]models.ActionRecord, len(hs.batch))
	copy(batchCopy, hs.batch)

	if err := hs.store.InsertGameActions(ctx, batchCopy); err != nil {
		// keep the batch for the next tick
		hs.logger.WithError(err).WithField("pending", len(batchCopy)).Error("flush failed")
		return
	}
	hs.batch = hs.batch[:0]
	hs.logger.Debugf("flushed %d actions", len(batchCopy))
}

// Pending returns the number of buffered records.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}

// SweepInactive marks games idle longer than the inactivity threshold as abandoned.
func (hs *Service) SweepInactive(ctx context.Context) {
	now := hs.now()
	hs.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= hs.opts.Inactivity {
			return true
		}
		changed, err := hs.store.MarkGameAbandoned(ctx, gameID)
		if err != nil {
			hs.logger.WithError(err).WithField("game_id", gameID).Warn("failed to mark game abandoned")
			return true
		}
		if changed {
			hs.logger.WithField("game_id", gameID).Info("marked game abandoned due to inactivity")
		}
		hs.lastActivity.Delete(gameID)
		return true
	})
}
