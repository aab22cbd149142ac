package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// === Task Ledger Port ===

// TaskRepository はタスク台帳の永続化ポートです
type TaskRepository interface {
	TaskReader
	TaskWriter
}

// TaskReader はタスクの読み取り操作を定義します
type TaskReader interface {
	// GetByID は存在しない場合 ErrNotFound を返します
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
}

// TaskWriter はタスクの書き込み操作を定義します
type TaskWriter interface {
	Create(ctx context.Context, task *Task) error
	Save(ctx context.Context, task *Task) error
	UpdateProgress(ctx context.Context, id uuid.UUID, status TaskStatus, message string) error
	// ClaimNextWaiting は所有者のいない最古の Waiting タスクに pid を設定して返します
	// 対象がない場合は (nil, nil) を返します
	ClaimNextWaiting(ctx context.Context, pid int) (*Task, error)
}

// === Schedule Store Port ===

// ScheduleRepository はスケジュールの永続化ポートです
type ScheduleRepository interface {
	ScheduleReader
	ScheduleWriter
}

// ScheduleReader はスケジュールの読み取り操作を定義します
type ScheduleReader interface {
	GetByName(ctx context.Context, name string) (*Schedule, error)
	List(ctx context.Context) ([]*Schedule, error)
	// MinNextRun は next_run が設定された全スケジュールの最小値を返します（なければ nil）
	MinNextRun(ctx context.Context) (*time.Time, error)
}

// ScheduleWriter はスケジュールの書き込み操作を定義します
type ScheduleWriter interface {
	// ListDueForUpdate は next_run <= now の行を (next_run, name) 順に行ロック付きで返します
	// 他のトランザクションがロック中の行はスキップします
	ListDueForUpdate(ctx context.Context, now time.Time) ([]*Schedule, error)
	UpdateNextRun(ctx context.Context, name string, nextRun *time.Time) error
}

// === User Port ===

// UserReader はユーザーの読み取り操作を定義します
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// === Transaction Port ===

// TxRepositories は単一トランザクション内で動作するリポジトリの束です
type TxRepositories struct {
	Tasks     TaskRepository
	Schedules ScheduleRepository
}

// UnitOfWork は fn をひとつのトランザクションで実行します
// fn がエラーを返した場合はロールバックされます
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
