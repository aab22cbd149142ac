package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// Rearmer は全スケジュール中で最も早い次回実行時刻に外部タイマーを再設定します
type Rearmer struct {
	schedules domain.ScheduleReader
	timer     domain.Timer
	log       *slog.Logger
}

// NewRearmer は新しいRearmerを作成します
func NewRearmer(schedules domain.ScheduleReader, timer domain.Timer, log *slog.Logger) *Rearmer {
	return &Rearmer{
		schedules: schedules,
		timer:     timer,
		log:       log,
	}
}

// Rearm は次回起動時刻を返します。対象スケジュールがなければタイマーは設定せず nil を返します
func (r *Rearmer) Rearm(ctx context.Context, database string) (*time.Time, error) {
	earliest, err := r.schedules.MinNextRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute earliest next run: %w", err)
	}

	if earliest == nil {
		r.log.Info("No schedule has a next run; timer left unarmed", "database", database)
		return nil, nil
	}

	if err := r.timer.Arm(ctx, database, *earliest); err != nil {
		return earliest, &domain.TimerError{Database: database, At: *earliest, Err: err}
	}

	r.log.Info("Timer armed", "database", database, "at", earliest.Format(time.RFC3339))
	return earliest, nil
}
