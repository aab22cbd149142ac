package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// RunTaskName は既存タスクを指定せずに実行したときの親タスク名です
const RunTaskName = "scheduletasks"

// DefaultEntryPoints は親タスクとして受け付けるタスク名の既定値です
var DefaultEntryPoints = []string{ScheduleTaskName, RunTaskName}

// EntryPoints は親タスクとして受け付けるタスク名の集合です
type EntryPoints map[string]struct{}

// NewEntryPoints は名前の一覧から EntryPoints を作成します
func NewEntryPoints(names ...string) EntryPoints {
	ep := make(EntryPoints, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			ep[n] = struct{}{}
		}
	}
	return ep
}

// Contains は name が実行エントリポイントかどうかを返します
func (ep EntryPoints) Contains(name string) bool {
	_, ok := ep[name]
	return ok
}

// ExecuteRequest は run-schedule の入力です
type ExecuteRequest struct {
	Database     string
	ScheduleName string
	TaskID       *uuid.UUID
	Username     string
}

// ExecutorDeps は Executor の依存関係です
type ExecutorDeps struct {
	Schedules   domain.ScheduleReader
	Tasks       domain.TaskRepository
	Users       domain.UserReader
	Runner      domain.StepRunner
	Catalog     domain.StepCatalog
	EntryPoints EntryPoints
}

// Executor は名前付きスケジュールのステップ列を子タスクとして順に実行します
type Executor struct {
	schedules   domain.ScheduleReader
	tasks       domain.TaskRepository
	users       domain.UserReader
	runner      domain.StepRunner
	catalog     domain.StepCatalog
	entryPoints EntryPoints
	now         func() time.Time
	pid         int
	log         *slog.Logger
}

// NewExecutor は新しいExecutorを作成します
func NewExecutor(deps ExecutorDeps, log *slog.Logger) *Executor {
	entryPoints := deps.EntryPoints
	if len(entryPoints) == 0 {
		entryPoints = NewEntryPoints(DefaultEntryPoints...)
	}
	return &Executor{
		schedules:   deps.Schedules,
		tasks:       deps.Tasks,
		users:       deps.Users,
		runner:      deps.Runner,
		catalog:     deps.Catalog,
		entryPoints: entryPoints,
		now:         time.Now,
		pid:         os.Getpid(),
		log:         log,
	}
}

// WithClock は現在時刻の取得関数を差し替えます
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// WithProcessID は記録するプロセスIDを差し替えます
func (e *Executor) WithProcessID(pid int) *Executor {
	e.pid = pid
	return e
}

// Execute はスケジュールを実行し、最終状態の親タスクを返します
//
// 親タスクの作成前に失敗した場合（スケジュール・ユーザー・タスクの解決失敗、
// 未登録ステップ）はタスクを一切変更せずにエラーを返します。
// 実行中の失敗では親タスクを Failed に確定させた上で、その親タスクとエラーを返します。
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (*domain.Task, error) {
	schedule, err := e.schedules.GetByName(ctx, req.ScheduleName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schedule %q: %w", req.ScheduleName, err)
	}

	if err := e.catalog.Validate(schedule.StepNames()); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", schedule.Name, err)
	}

	var owner *uuid.UUID
	if req.Username != "" {
		user, err := e.users.GetByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user %q: %w", req.Username, err)
		}
		owner = &user.ID
	}

	parent, err := e.resolveParent(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner = parent.UserID
	}
	if owner == nil {
		owner = schedule.UserID
	}
	parent.UserID = owner

	log := e.log.With("database", req.Database, "schedule", schedule.Name, "taskID", parent.ID)

	if err := e.startParent(ctx, parent, req.TaskID == nil); err != nil {
		return e.failRun(ctx, log, parent.ID, err)
	}

	log.Info("Schedule run started", "steps", len(schedule.Steps))

	if err := e.runSteps(ctx, log, req.Database, parent, schedule); err != nil {
		return e.failRun(ctx, log, parent.ID, err)
	}

	final, err := e.tasks.GetByID(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload parent task: %w", err)
	}
	log.Info("Schedule run finished", "status", final.Status, "message", final.Message)
	return final, nil
}

// resolveParent は指定タスクを検証するか、新しい親タスクを組み立てます（永続化はしません）
func (e *Executor) resolveParent(ctx context.Context, taskID *uuid.UUID) (*domain.Task, error) {
	if taskID == nil {
		return domain.NewWaitingTask(RunTaskName, "", nil, e.now()), nil
	}

	task, err := e.tasks.GetByID(ctx, *taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task %s: %w", *taskID, err)
	}
	if !task.IsFresh() || !e.entryPoints.Contains(task.Name) {
		return nil, fmt.Errorf("%w: %s (name=%s, status=%s)", domain.ErrInvalidTask, task.ID, task.Name, task.Status)
	}
	return task, nil
}

func (e *Executor) startParent(ctx context.Context, parent *domain.Task, isNew bool) error {
	parent.MarkStarted(e.now(), e.pid)
	if isNew {
		if err := e.tasks.Create(ctx, parent); err != nil {
			return fmt.Errorf("failed to create parent task: %w", err)
		}
		return nil
	}
	if err := e.tasks.Save(ctx, parent); err != nil {
		return fmt.Errorf("failed to start parent task: %w", err)
	}
	return nil
}

func (e *Executor) runSteps(ctx context.Context, log *slog.Logger, database string, parent *domain.Task, schedule *domain.Schedule) error {
	total := len(schedule.Steps)
	var failed []string

	for i, step := range schedule.Steps {
		idx := i + 1

		// 子タスクは作成時点でこのプロセスの所有とし、並行するワーカーに拾われないようにする
		child := domain.NewWaitingTask(step.Name, step.Arguments, parent.UserID, e.now())
		child.ProcessID = &e.pid
		if err := e.tasks.Create(ctx, child); err != nil {
			return fmt.Errorf("failed to create task for step %d of %d: %w", idx, total, err)
		}

		message := fmt.Sprintf("Running task %s as step %d of %d", child.ID, idx, total)
		if err := e.tasks.UpdateProgress(ctx, parent.ID, domain.StepProgress(idx, total), message); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		log.Info("Step started", "step", idx, "of", total, "name", step.Name, "childID", child.ID)

		if err := e.runner.RunTask(ctx, database, child); err != nil {
			return fmt.Errorf("step %d of %d (%s): %w", idx, total, step.Name, err)
		}

		done, err := e.tasks.GetByID(ctx, child.ID)
		if err != nil {
			return fmt.Errorf("failed to reload task of step %d of %d: %w", idx, total, err)
		}
		if done.Status != domain.TaskStatusFailed {
			continue
		}

		failed = append(failed, done.ID.String())
		log.Warn("Step failed", "step", idx, "of", total, "name", step.Name, "childID", done.ID, "message", done.Message)

		if step.AbortOnFailure {
			runErr := &domain.RunFailure{Step: idx, Total: total}
			current, err := e.tasks.GetByID(ctx, parent.ID)
			if err != nil {
				return errors.Join(runErr, err)
			}
			current.Finish(domain.TaskStatusFailed, runErr.Error(), e.now())
			if err := e.tasks.Save(ctx, current); err != nil {
				return errors.Join(runErr, err)
			}
			return runErr
		}
	}

	final, err := e.tasks.GetByID(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("failed to reload parent task: %w", err)
	}
	if len(failed) > 0 {
		final.Finish(domain.TaskStatusFailed, "Failed at tasks: "+strings.Join(failed, ", "), e.now())
	} else {
		final.Finish(domain.TaskStatusDone, "", e.now())
	}
	if err := e.tasks.Save(ctx, final); err != nil {
		return fmt.Errorf("failed to finalize parent task: %w", err)
	}
	return nil
}

// failRun は親タスクを Failed に確定させてから cause を返します
// 親タスクが存在しない場合は cause のみを返します
func (e *Executor) failRun(ctx context.Context, log *slog.Logger, parentID uuid.UUID, cause error) (*domain.Task, error) {
	ctx = context.WithoutCancel(ctx)
	log.Error("Schedule run failed", "error", cause)

	current, err := e.tasks.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, cause
		}
		return nil, errors.Join(cause, fmt.Errorf("failed to reload parent task: %w", err))
	}

	current.Finish(domain.TaskStatusFailed, cause.Error(), e.now())
	if err := e.tasks.Save(ctx, current); err != nil {
		return current, errors.Join(cause, fmt.Errorf("failed to mark parent task failed: %w", err))
	}
	return current, cause
}
