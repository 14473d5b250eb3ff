package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

type postgresHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &postgresHistory{
		pool: pool,
	}
}

func (that *postgresHistory) Record(ctx context.Context, record *entity.MatchRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}

	query := `INSERT INTO match_history (room_key, players, winner_name, reason, rounds, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err = that.pool.QueryRow(ctx, query,
		record.RoomKey, playersJSON, record.WinnerName, record.Reason, record.Rounds, record.FinishedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert match record: %w", err)
	}

	return nil
}

func (that *postgresHistory) Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	query := `SELECT id, room_key, players, winner_name, reason, rounds, finished_at
		FROM match_history ORDER BY id DESC LIMIT $1`

	rows, err := that.pool.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.MatchRecord, 0)
	for rows.Next() {
		var (
			record      entity.MatchRecord
			playersJSON []byte
		)

		if err = rows.Scan(&record.ID, &record.RoomKey, &playersJSON, &record.WinnerName,
			&record.Reason, &record.Rounds, &record.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}

		if err = json.Unmarshal(playersJSON, &record.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players: %w", err)
		}

		records = append(records, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match history: %w", err)
	}

	return records, nil
}
