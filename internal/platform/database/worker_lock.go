package database

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
	"github.com/jinford/schedtask/pkg/lock"
)

const workerLockNamespace = "schedtask-worker"

// WorkerLock はセッションスコープのアドバイザリロックでワーカーを排他します
type WorkerLock struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewWorkerLock は新しいWorkerLockを作成します
func NewWorkerLock(pool *pgxpool.Pool, log *slog.Logger) *WorkerLock {
	return &WorkerLock{pool: pool, log: log}
}

var _ domain.WorkerLock = (*WorkerLock)(nil)

// TryAcquire はデータベース識別子から導いたロックIDで取得を試みます
func (w *WorkerLock) TryAcquire(ctx context.Context, database string) (func(), bool, error) {
	held, acquired, err := lock.TryAcquire(ctx, w.pool, lock.GenerateLockID(workerLockNamespace, database))
	if err != nil || !acquired {
		return nil, acquired, err
	}

	return func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			w.log.Warn("Failed to release worker lock", "database", database, "error", err)
		}
	}, true, nil
}
