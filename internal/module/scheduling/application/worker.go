package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// ScheduleExecutor は Worker から見た Executor です
type ScheduleExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (*domain.Task, error)
}

// Worker は所有者のいない Waiting タスクを古い順に確保して処理します
type Worker struct {
	tasks       domain.TaskRepository
	executor    ScheduleExecutor
	runner      domain.StepRunner
	lock        domain.WorkerLock
	entryPoints EntryPoints
	now         func() time.Time
	pid         int
	log         *slog.Logger
}

// NewWorker は新しいWorkerを作成します
func NewWorker(tasks domain.TaskRepository, executor ScheduleExecutor, runner domain.StepRunner, entryPoints EntryPoints, log *slog.Logger) *Worker {
	if len(entryPoints) == 0 {
		entryPoints = NewEntryPoints(DefaultEntryPoints...)
	}
	return &Worker{
		tasks:       tasks,
		executor:    executor,
		runner:      runner,
		entryPoints: entryPoints,
		now:         time.Now,
		pid:         os.Getpid(),
		log:         log,
	}
}

// WithProcessID は確保時に記録するプロセスIDを差し替えます
func (w *Worker) WithProcessID(pid int) *Worker {
	w.pid = pid
	return w
}

// WithLock はワーカー排他用のロックを設定します
func (w *Worker) WithLock(lock domain.WorkerLock) *Worker {
	w.lock = lock
	return w
}

// Run はワーカーロックを取得してから Drain します
// 他のワーカーが同じデータベースを処理中の場合は何もせずに終了します
func (w *Worker) Run(ctx context.Context, database string) (int, error) {
	if w.lock != nil {
		release, acquired, err := w.lock.TryAcquire(ctx, database)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire worker lock: %w", err)
		}
		if !acquired {
			w.log.Info("Another worker is already running", "database", database)
			return 0, nil
		}
		defer release()
	}

	return w.Drain(ctx, database)
}

// Drain は確保できるタスクがなくなるまで処理を続け、処理件数を返します
// 個々のタスクの失敗はタスクの状態に記録され、Drain 自体は継続します
func (w *Worker) Drain(ctx context.Context, database string) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		task, err := w.tasks.ClaimNextWaiting(ctx, w.pid)
		if err != nil {
			return processed, fmt.Errorf("failed to claim waiting task: %w", err)
		}
		if task == nil {
			w.log.Info("No waiting task left", "database", database, "processed", processed)
			return processed, nil
		}

		w.dispatch(ctx, database, task)
		processed++
	}
}

func (w *Worker) dispatch(ctx context.Context, database string, task *domain.Task) {
	log := w.log.With("database", database, "taskID", task.ID, "name", task.Name)
	log.Info("Task claimed")

	var err error
	if w.entryPoints.Contains(task.Name) {
		_, err = w.executor.Execute(ctx, ExecuteRequest{
			Database:     database,
			ScheduleName: task.Arguments,
			TaskID:       &task.ID,
		})
	} else {
		err = w.runner.RunTask(ctx, database, task)
	}
	if err == nil {
		return
	}

	log.Error("Task failed", "error", err)
	w.settle(ctx, log, task, err)
}

// settle は確保したまま終了状態に到達しなかったタスクを Failed に確定させます
func (w *Worker) settle(ctx context.Context, log *slog.Logger, task *domain.Task, cause error) {
	ctx = context.WithoutCancel(ctx)

	current, err := w.tasks.GetByID(ctx, task.ID)
	if err != nil {
		log.Error("Failed to reload task", "error", err)
		return
	}
	if current.Status.IsTerminal() {
		return
	}

	current.Finish(domain.TaskStatusFailed, cause.Error(), w.now())
	if err := w.tasks.Save(ctx, current); err != nil {
		log.Error("Failed to mark task failed", "error", err)
	}
}
