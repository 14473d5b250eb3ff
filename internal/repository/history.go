package repository

import (
	"context"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryRepository is the durable log of completed matches.
type HistoryRepository interface {
	Record(ctx context.Context, record *entity.MatchRecord) error
	Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
