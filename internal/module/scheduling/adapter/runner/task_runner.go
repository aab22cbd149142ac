package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// TaskRunner はカタログのハンドラーでタスクを実行し、終了状態を記録します
type TaskRunner struct {
	tasks   domain.TaskRepository
	catalog *Catalog
	now     func() time.Time
	pid     int
	log     *slog.Logger
}

// NewTaskRunner は新しいTaskRunnerを作成します
func NewTaskRunner(tasks domain.TaskRepository, catalog *Catalog, log *slog.Logger) *TaskRunner {
	return &TaskRunner{
		tasks:   tasks,
		catalog: catalog,
		now:     time.Now,
		pid:     os.Getpid(),
		log:     log,
	}
}

// WithClock は現在時刻の取得関数を差し替えます
func (r *TaskRunner) WithClock(now func() time.Time) *TaskRunner {
	r.now = now
	return r
}

var _ domain.StepRunner = (*TaskRunner)(nil)

// RunTask はタスクを開始状態にしてハンドラーを実行し、Done か Failed で確定させます
// ハンドラーの失敗はタスクの状態で表し、エラーとしては返しません
func (r *TaskRunner) RunTask(ctx context.Context, database string, task *domain.Task) error {
	handler, ok := r.catalog.Lookup(task.Name)
	if !ok {
		return fmt.Errorf("no handler registered for task %q: %w", task.Name, domain.ErrConfig)
	}

	current, err := r.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}
	if current.Status.IsTerminal() {
		r.log.Info("Task already finished; skipping", "database", database, "taskID", current.ID, "status", current.Status)
		return nil
	}

	pid := r.pid
	if current.ProcessID != nil {
		pid = *current.ProcessID
	}
	current.MarkStarted(r.now(), pid)
	if err := r.tasks.Save(ctx, current); err != nil {
		return fmt.Errorf("failed to mark task started: %w", err)
	}

	log := r.log.With("database", database, "taskID", current.ID, "name", current.Name)
	log.Info("Task started")
	runErr := handler.Run(ctx, Request{Database: database, Task: current})

	// 実行中にキャンセルされても結果は記録する
	finalCtx := context.WithoutCancel(ctx)
	final, err := r.tasks.GetByID(finalCtx, current.ID)
	if err != nil {
		return fmt.Errorf("failed to reload task: %w", err)
	}

	switch {
	case final.Status == domain.TaskStatusFailed:
		// 外部から Failed にされた場合はそのまま確定させる
		final.Finish(domain.TaskStatusFailed, final.Message, r.now())
	case runErr != nil:
		final.Finish(domain.TaskStatusFailed, runErr.Error(), r.now())
	default:
		final.Finish(domain.TaskStatusDone, final.Message, r.now())
	}

	if err := r.tasks.Save(finalCtx, final); err != nil {
		return fmt.Errorf("failed to finish task: %w", err)
	}

	log.Info("Task finished", "status", final.Status)
	return nil
}
