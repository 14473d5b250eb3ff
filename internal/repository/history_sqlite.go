package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

type sqliteHistory struct {
	conn *sql.DB
}

func NewSQLiteHistoryRepository(conn *sql.DB) HistoryRepository {
	return &sqliteHistory{
		conn: conn,
	}
}

func (that *sqliteHistory) Record(ctx context.Context, record *entity.MatchRecord) error {
	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}

	query := `INSERT INTO match_history (room_key, players, winner_name, reason, rounds, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := that.conn.ExecContext(ctx, query,
		record.RoomKey, string(playersJSON), record.WinnerName, record.Reason, record.Rounds, record.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("can't save match record: %w", err)
	}

	if record.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("can't read match record id: %w", err)
	}

	return nil
}

func (that *sqliteHistory) Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	query := `SELECT id, room_key, players, winner_name, reason, rounds, finished_at
		FROM match_history ORDER BY id DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("can't query match history: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.MatchRecord, 0)
	for rows.Next() {
		var (
			record      entity.MatchRecord
			playersJSON string
			finishedAt  int64
		)

		if err = rows.Scan(&record.ID, &record.RoomKey, &playersJSON, &record.WinnerName,
			&record.Reason, &record.Rounds, &finishedAt); err != nil {
			return nil, fmt.Errorf("can't scan match record: %w", err)
		}

		if err = json.Unmarshal([]byte(playersJSON), &record.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players: %w", err)
		}

		record.FinishedAt = time.UnixMilli(finishedAt).UTC()
		records = append(records, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate match history: %w", err)
	}

	return records, nil
}
