package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// TaskRepository はタスク台帳の永続化アダプターです
type TaskRepository struct {
	q sqlc.Querier
}

// NewTaskRepository は新しいタスクリポジトリを作成します
func NewTaskRepository(q sqlc.Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

var _ domain.TaskRepository = (*TaskRepository)(nil)

// GetByID はIDでタスクを取得します
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := r.q.GetTask(ctx, UUIDToPgtype(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return convertSQLCTask(task), nil
}

// Create はタスクを新規登録します
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	err := r.q.CreateTask(ctx, sqlc.CreateTaskParams{
		ID:        UUIDToPgtype(task.ID),
		Name:      task.Name,
		Submitted: TimeToPgtype(task.Submitted),
		Started:   TimePtrToPgtype(task.Started),
		Finished:  TimePtrToPgtype(task.Finished),
		Status:    string(task.Status),
		Message:   task.Message,
		UserID:    UUIDPtrToPgtype(task.UserID),
		Processid: IntPtrToPgtype(task.ProcessID),
		Arguments: task.Arguments,
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Save はタスクの可変フィールドを書き戻します
func (r *TaskRepository) Save(ctx context.Context, task *domain.Task) error {
	affected, err := r.q.UpdateTask(ctx, sqlc.UpdateTaskParams{
		ID:        UUIDToPgtype(task.ID),
		Name:      task.Name,
		Started:   TimePtrToPgtype(task.Started),
		Finished:  TimePtrToPgtype(task.Finished),
		Status:    string(task.Status),
		Message:   task.Message,
		UserID:    UUIDPtrToPgtype(task.UserID),
		Processid: IntPtrToPgtype(task.ProcessID),
		Arguments: task.Arguments,
	})
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdateProgress は進捗表示（status と message）のみを更新します
func (r *TaskRepository) UpdateProgress(ctx context.Context, id uuid.UUID, status domain.TaskStatus, message string) error {
	affected, err := r.q.UpdateTaskProgress(ctx, sqlc.UpdateTaskProgressParams{
		ID:      UUIDToPgtype(id),
		Status:  string(status),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ClaimNextWaiting は未所有の最古の Waiting タスクを pid で確保します
// 他のワーカーが行ロック中のタスクは読み飛ばします
func (r *TaskRepository) ClaimNextWaiting(ctx context.Context, pid int) (*domain.Task, error) {
	task, err := r.q.ClaimNextWaitingTask(ctx, pgtype.Int4{Int32: int32(pid), Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim waiting task: %w", err)
	}

	return convertSQLCTask(task), nil
}
