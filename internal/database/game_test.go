package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheric/setgame/internal/game"
	"github.com/zheric/setgame/internal/models"
)

func TestWinners(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	w := Winners(map[uuid.UUID]int{a: 4, b: 7, c: 7})
	assert.False(t, w[a])
	assert.True(t, w[b])
	assert.True(t, w[c])

	w = Winners(map[uuid.UUID]int{a: 0, b: 0})
	assert.True(t, w[a])
	assert.True(t, w[b])

	assert.Empty(t, Winners(nil))
}

func TestRecordTime(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got := recordTime(models.ActionRecord{Timestamp: ts.UnixMilli()})
	assert.True(t, ts.Equal(got))

	before := time.Now()
	got = recordTime(models.ActionRecord{})
	assert.False(t, got.Before(before))
}

func TestOrderRecords(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	in := []models.ActionRecord{
		record(a, 5, models.ActionRestart),
		record(b, 2, models.ActionDeal),
		record(a, 4, string(game.EventGameOver)),
		record(b, 1, models.ActionDeal),
	}

	out := orderRecords(in)
	var forA, forB []int
	for _, r := range out {
		if r.GameID == a {
			forA = append(forA, r.ActionIndex)
		} else {
			forB = append(forB, r.ActionIndex)
		}
	}
	assert.Equal(t, []int{4, 5}, forA)
	assert.Equal(t, []int{1, 2}, forB)
	assert.Equal(t, 5, in[0].ActionIndex, "input is left untouched")
}

func record(gameID uuid.UUID, idx int, actionType string) models.ActionRecord {
	return models.ActionRecord{GameID: gameID, ActionIndex: idx, ActionType: actionType}
}

// setupDB connects to DATABASE_URL and migrates; skipped when unset.
func setupDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestActionsAndResultsRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	gameID, player := uuid.New(), uuid.New()

	recs := []models.ActionRecord{
		{GameID: gameID, ActionIndex: 1, ActorUserID: player, ActionType: models.ActionDeal, Timestamp: time.Now().UnixMilli()},
		{GameID: gameID, ActionIndex: 2, ActorUserID: player, ActionType: models.ActionSelect,
			ActionPayload: map[string]interface{}{"card_id": 4}},
	}
	require.NoError(t, db.InsertGameActions(ctx, recs))
	// replays are ignored
	require.NoError(t, db.InsertGameActions(ctx, recs[:1]))

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM game_actions WHERE game_id = $1`, gameID).Scan(&n))
	assert.Equal(t, 2, n)

	err := db.RecordGameResult(ctx, models.GameResult{
		GameID:    gameID,
		Seed:      9,
		StartedAt: time.Now().Add(-time.Minute),
		EndedAt:   time.Now(),
		Scores:    map[uuid.UUID]int{player: 25},
		Discarded: 75,
		Remaining: 6,
	})
	require.NoError(t, err)

	var status string
	require.NoError(t, db.QueryRow(ctx, `SELECT status FROM games WHERE id = $1`, gameID).Scan(&status))
	assert.Equal(t, StatusCompleted, status)

	changed, err := db.MarkGameAbandoned(ctx, gameID)
	require.NoError(t, err)
	assert.False(t, changed, "completed games are never abandoned")
}

func TestStatusFollowsActionIndex(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	gameID := uuid.New()

	// the restart arrives in an earlier batch than the game_over it follows
	require.NoError(t, db.InsertGameActions(ctx, []models.ActionRecord{record(gameID, 8, models.ActionRestart)}))
	require.NoError(t, db.InsertGameActions(ctx, []models.ActionRecord{record(gameID, 7, string(game.EventGameOver))}))

	var status string
	require.NoError(t, db.QueryRow(ctx, `SELECT status FROM games WHERE id = $1`, gameID).Scan(&status))
	assert.Equal(t, StatusInProgress, status)

	// within one batch, out of order
	other := uuid.New()
	require.NoError(t, db.InsertGameActions(ctx, []models.ActionRecord{
		record(other, 3, models.ActionRestart),
		record(other, 2, string(game.EventGameOver)),
	}))
	require.NoError(t, db.QueryRow(ctx, `SELECT status FROM games WHERE id = $1`, other).Scan(&status))
	assert.Equal(t, StatusInProgress, status)
}
