package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// ScheduleTaskName は収穫時に作成するタスクの名前です
const ScheduleTaskName = "schedule"

// HarvestResult は1回のスキャン結果です
type HarvestResult struct {
	ScannedAt time.Time
	Created   []*domain.Task
}

// Harvester は期限到来スケジュールを行ロック付きで確保し、Waiting タスクを作成します
type Harvester struct {
	uow      domain.UnitOfWork
	launcher domain.WorkerLauncher
	now      func() time.Time
	log      *slog.Logger
}

// NewHarvester は新しいHarvesterを作成します
func NewHarvester(uow domain.UnitOfWork, launcher domain.WorkerLauncher, log *slog.Logger) *Harvester {
	return &Harvester{
		uow:      uow,
		launcher: launcher,
		now:      time.Now,
		log:      log,
	}
}

// WithClock は現在時刻の取得関数を差し替えます
func (h *Harvester) WithClock(now func() time.Time) *Harvester {
	h.now = now
	return h
}

// Harvest は期限到来スケジュールごとに1つのタスクを作成し、次回実行時刻を進めます
// スキャン全体が1トランザクションで、途中の失敗はすべてを巻き戻します。
// コミット後にタスクが1件以上あればワーカー起動を1回だけ合図します。
// 起動合図の失敗時は作成済みタスクを含む結果とエラーを両方返します。
func (h *Harvester) Harvest(ctx context.Context, database string) (*HarvestResult, error) {
	now := h.now()
	var created []*domain.Task

	err := h.uow.Do(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		created = created[:0]

		due, err := repos.Schedules.ListDueForUpdate(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to select due schedules: %w", err)
		}

		for _, schedule := range due {
			task := domain.NewWaitingTask(ScheduleTaskName, schedule.Name, schedule.UserID, now)
			if err := repos.Tasks.Create(ctx, task); err != nil {
				return fmt.Errorf("failed to create task for schedule %q: %w", schedule.Name, err)
			}

			previous := schedule.NextRun
			if err := schedule.ComputeNextRun(now); err != nil {
				return fmt.Errorf("failed to compute next run of schedule %q: %w", schedule.Name, err)
			}
			if err := repos.Schedules.UpdateNextRun(ctx, schedule.Name, schedule.NextRun); err != nil {
				return fmt.Errorf("failed to update next run of schedule %q: %w", schedule.Name, err)
			}

			h.log.Info("Schedule harvested",
				"database", database,
				"schedule", schedule.Name,
				"taskID", task.ID,
				"previousRun", previous,
				"nextRun", schedule.NextRun,
			)
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		h.log.Error("Failed to harvest due schedules", "database", database, "error", err)
		return nil, err
	}

	result := &HarvestResult{ScannedAt: now, Created: created}
	if len(created) == 0 {
		return result, nil
	}

	if err := h.launcher.LaunchWorker(ctx, database); err != nil {
		h.log.Error("Failed to launch worker", "database", database, "error", err)
		return result, fmt.Errorf("failed to launch worker for database %q: %w", database, err)
	}

	return result, nil
}
