package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// None は外部タイマーを使わず、次回起動時刻をログに出力するだけのタイマーです
// 外部の cron などから定期的に scheduletasks を起動する運用で使います
type None struct {
	log *slog.Logger
}

// NewNone は新しいNoneタイマーを作成します
func NewNone(log *slog.Logger) *None {
	return &None{log: log}
}

var _ domain.Timer = (*None)(nil)

func (n *None) Arm(ctx context.Context, database string, at time.Time) error {
	n.log.Info("Timer backend disabled; next wake-up not armed", "database", database, "at", at.Format(time.RFC3339))
	return nil
}
