package lock

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionLock はPostgreSQLのセッションスコープのアドバイザリロックを表します
// ロックは取得したコネクションに紐づくため、解放までコネクションを保持します
type SessionLock struct {
	conn   *pgxpool.Conn
	lockID int64
}

// GenerateLockID は文字列からロックIDを生成します
func GenerateLockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}

	return id
}

// TryAcquire は pg_try_advisory_lock でロックの取得を試みます
// 他のセッションが保持中の場合は待たずに (nil, false, nil) を返します
func TryAcquire(ctx context.Context, pool *pgxpool.Pool, lockID int64) (*SessionLock, bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	return &SessionLock{
		conn:   conn,
		lockID: lockID,
	}, true, nil
}

// Release はアドバイザリロックを解放し、コネクションをプールに返します
func (l *SessionLock) Release(ctx context.Context) error {
	defer l.conn.Release()

	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.lockID); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	return nil
}
