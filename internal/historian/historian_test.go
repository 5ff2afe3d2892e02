package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheric/setgame/internal/cache"
	"github.com/zheric/setgame/internal/models"
)

// chanQueue feeds encoded records from a channel.
type chanQueue struct {
	ch chan []byte
}

func (q *chanQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-q.ch:
		return data, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

// fakeStore records flushed batches and abandoned games.
type fakeStore struct {
	mu        sync.Mutex
	batches   [][]models.ActionRecord
	abandoned []uuid.UUID
	insertErr error
}

func (fs *fakeStore) InsertGameActions(_ context.Context, recs []models.ActionRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.insertErr != nil {
		return fs.insertErr
	}
	fs.batches = append(fs.batches, recs)
	return nil
}

func (fs *fakeStore) MarkGameAbandoned(_ context.Context, id uuid.UUID) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.abandoned = append(fs.abandoned, id)
	return true, nil
}

func (fs *fakeStore) total() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, b := range fs.batches {
		n += len(b)
	}
	return n
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func record(gameID uuid.UUID, idx int, actionType string) models.ActionRecord {
	return models.ActionRecord{GameID: gameID, ActionIndex: idx, ActionType: actionType}
}

func TestAppendFlushesWhenBatchIsFull(t *testing.T) {
	store := &fakeStore{}
	hs := NewService(nil, store, Options{BatchSize: 3}, quietLogger())
	ctx := context.Background()
	gameID := uuid.New()

	hs.Append(ctx, record(gameID, 1, models.ActionDeal))
	hs.Append(ctx, record(gameID, 2, models.ActionSelect))
	assert.Equal(t, 0, store.total())
	assert.Equal(t, 2, hs.Pending())

	hs.Append(ctx, record(gameID, 3, models.ActionSelect))
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 3)
	assert.Equal(t, 0, hs.Pending())
}

func TestFailedFlushKeepsBatch(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("db down")}
	hs := NewService(nil, store, Options{BatchSize: 10}, quietLogger())
	ctx := context.Background()

	hs.Append(ctx, record(uuid.New(), 1, models.ActionDeal))
	hs.Flush(ctx)
	assert.Equal(t, 1, hs.Pending())

	store.mu.Lock()
	store.insertErr = nil
	store.mu.Unlock()
	hs.Flush(ctx)
	assert.Equal(t, 0, hs.Pending())
	assert.Equal(t, 1, store.total())
}

func TestSweepInactiveMarksIdleGames(t *testing.T) {
	store := &fakeStore{}
	hs := NewService(nil, store, Options{Inactivity: time.Minute}, quietLogger())
	ctx := context.Background()

	clock := time.Now()
	hs.now = func() time.Time { return clock }

	idle, active, finished := uuid.New(), uuid.New(), uuid.New()
	hs.Append(ctx, record(idle, 1, models.ActionDeal))
	hs.Append(ctx, record(finished, 1, models.ActionDeal))
	hs.Append(ctx, record(finished, 2, gameOverAction))

	clock = clock.Add(2 * time.Minute)
	hs.Append(ctx, record(active, 1, models.ActionDeal))

	hs.SweepInactive(ctx)
	assert.Equal(t, []uuid.UUID{idle}, store.abandoned)

	// swept games are forgotten
	hs.SweepInactive(ctx)
	assert.Len(t, store.abandoned, 1)
}

func TestRunConsumesQueueAndFlushesOnShutdown(t *testing.T) {
	q := &chanQueue{ch: make(chan []byte, 8)}
	store := &fakeStore{}
	hs := NewService(q, store, Options{
		BatchSize:     100,
		FlushInterval: time.Hour,
		PopTimeout:    20 * time.Millisecond,
	}, quietLogger())

	gameID := uuid.New()
	for i := 1; i <= 4; i++ {
		data, err := cache.EncodeRecord(record(gameID, i, models.ActionSelect))
		require.NoError(t, err)
		q.ch <- data
	}
	q.ch <- []byte("garbage")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hs.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hs.Pending() == 4 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 4, store.total())
}

func TestNewRedisQueueDefaultsName(t *testing.T) {
	assert.Equal(t, cache.DefaultQueueName, NewRedisQueue(nil, "").Name)
}
