package service

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

// Notifier tells both participants how a match ended.
type Notifier interface {
	NotifyOutcome(ctx context.Context, notice *entity.OutcomeNotice) error
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier - writes outcomes to the log instead of delivering them anywhere.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (that *logNotifier) NotifyOutcome(_ context.Context, notice *entity.OutcomeNotice) error {
	that.logger.Info("match outcome",
		"method", "NotifyOutcome",
		"roomId", notice.RoomKey,
		"winner", notice.WinnerName,
		"playerA", notice.PlayerA.Name,
		"playerB", notice.PlayerB.Name,
		"rounds", notice.Rounds,
		"reason", notice.Reason,
	)

	return nil
}
