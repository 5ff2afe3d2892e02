// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/zheric/setgame/internal/game"
	"github.com/zheric/setgame/internal/models"
)

// Game status values stored in games.status.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Winners returns the players with the highest score. Everyone ties when nobody found a set.
func Winners(scores map[uuid.UUID]int) map[uuid.UUID]bool {
	best := 0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	out := make(map[uuid.UUID]bool, len(scores))
	for id, s := range scores {
		out[id] = s == best
	}
	return out
}

// RecordGameResult marks the game completed and stores one game_results row per player for the round.
func (db *DB) RecordGameResult(ctx context.Context, res models.GameResult) error {
	winners := Winners(res.Scores)
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, seed, round, discarded, remaining, start_time, end_time)
			VALUES ($1, 'completed', $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET status = 'completed', seed = $2, round = $3, discarded = $4,
			    remaining = $5, start_time = $6, end_time = $7
		`
		if _, e := tx.Exec(ctx, upsertGame,
			res.GameID, res.Seed, res.Round, res.Discarded, res.Remaining, res.StartedAt, res.EndedAt,
		); e != nil {
			return e
		}

		for playerID, score := range res.Scores {
			q := `
				INSERT INTO game_results (game_id, round, player_id, sets_found, did_win)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (game_id, round, player_id)
				DO UPDATE SET sets_found = $4, did_win = $5
			`
			if _, e := tx.Exec(ctx, q, res.GameID, res.Round, playerID, score, winners[playerID]); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// InsertGameActions writes a batch of action records in one transaction.
// Games seen for the first time get an in_progress row; replayed records are ignored.
// Status changes apply only when newer than the last one stored for the game,
// since publishing does not preserve order.
func (db *DB) InsertGameActions(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range orderRecords(records) {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d of game %v: %w", rec.ActionIndex, rec.GameID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush game actions: %w", err)
	}
	return nil
}

// MarkGameAbandoned flags a game that is still in progress as abandoned.
// It reports whether a row changed.
func (db *DB) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`, gameID)
	if err != nil {
		return false, fmt.Errorf("mark game %v abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}

	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, recordTime(rec),
	)
	if err != nil {
		return err
	}

	switch rec.ActionType {
	case string(game.EventGameOver):
		_, err = tx.Exec(ctx, `
			UPDATE games
			SET status = 'completed', end_time = $2, status_index = $3
			WHERE id = $1 AND status_index < $3
		`, rec.GameID, recordTime(rec), rec.ActionIndex)
	case models.ActionRestart:
		_, err = tx.Exec(ctx, `
			UPDATE games
			SET status = 'in_progress', end_time = NULL, status_index = $2
			WHERE id = $1 AND status_index < $2
		`, rec.GameID, rec.ActionIndex)
	}
	return err
}

// orderRecords returns a copy sorted by game, then action index.
func orderRecords(records []models.ActionRecord) []models.ActionRecord {
	out := make([]models.ActionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GameID != b.GameID {
			return a.GameID.String() < b.GameID.String()
		}
		return a.ActionIndex < b.ActionIndex
	})
	return out
}

func recordTime(rec models.ActionRecord) time.Time {
	if rec.Timestamp == 0 {
		return time.Now()
	}
	return time.UnixMilli(rec.Timestamp)
}
