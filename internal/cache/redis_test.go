package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheric/setgame/internal/models"
)

func TestRecordRoundTrip(t *testing.T) {
	rec := models.ActionRecord{
		GameID:        uuid.New(),
		ActionIndex:   3,
		ActorUserID:   uuid.New(),
		ActionType:    models.ActionSelect,
		ActionPayload: map[string]interface{}{"card_id": float64(12)},
		Timestamp:     time.Now().UnixMilli(),
	}
	data, err := EncodeRecord(rec)
	require.NoError(t, err)

	got, err := DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	_, err := DecodeRecord([]byte("not json"))
	assert.ErrorContains(t, err, "invalid action record")
}

func TestNewPublisherDefaultsQueue(t *testing.T) {
	p := NewPublisher(nil, "")
	assert.Equal(t, DefaultQueueName, p.Queue)
	assert.Equal(t, "custom", NewPublisher(nil, "custom").Queue)
}

// Needs a local Redis; skipped when none is reachable.
func TestPublishGameActionRedis(t *testing.T) {
	ctx := context.Background()
	rdb, err := Connect(ctx, "localhost:6379", 0)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer rdb.Close()

	queue := "setgame_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)

	p := NewPublisher(rdb, queue)
	rec := models.ActionRecord{GameID: uuid.New(), ActionIndex: 1, ActionType: models.ActionDeal}
	require.NoError(t, p.PublishGameAction(ctx, rec))

	res, err := rdb.LPop(ctx, queue).Result()
	require.NoError(t, err)
	got, err := DecodeRecord([]byte(res))
	require.NoError(t, err)
	assert.Equal(t, rec.GameID, got.GameID)

	_, err = rdb.LPop(ctx, queue).Result()
	assert.ErrorIs(t, err, redis.Nil)
}
