package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	schedpg "github.com/jinford/schedtask/internal/module/scheduling/adapter/pg"
	schedsqlc "github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// TransactionProvider follows the pattern described in https://threedots.tech/post/database-transactions-in-go/
// It hides pgx transactions behind a callback that receives data-access adapters.
type TransactionProvider struct {
	pool *pgxpool.Pool
}

// NewTransactionProvider は新しいTransactionProviderを作成します
func NewTransactionProvider(pool *pgxpool.Pool) *TransactionProvider {
	return &TransactionProvider{pool: pool}
}

// Adapter bundles repository adapters that operate inside a single transaction.
type Adapter struct {
	Tasks     *schedpg.TaskRepository
	Schedules *schedpg.ScheduleRepository
	Users     *schedpg.UserRepository
}

func newAdapter(tx pgx.Tx) *Adapter {
	queries := schedsqlc.New(tx)
	return &Adapter{
		Tasks:     schedpg.NewTaskRepository(queries),
		Schedules: schedpg.NewScheduleRepository(queries),
		Users:     schedpg.NewUserRepository(queries),
	}
}

// Transact opens a transaction, builds adapters, and passes them to fn.
func Transact[T any](ctx context.Context, p *TransactionProvider, fn func(*Adapter) (T, error)) (T, error) {
	var zero T
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	adapters := newAdapter(tx)

	result, err := fn(adapters)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return zero, fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

var _ domain.UnitOfWork = (*TransactionProvider)(nil)

// Do は fn をひとつのトランザクションで実行します
func (p *TransactionProvider) Do(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	_, err := Transact(ctx, p, func(a *Adapter) (struct{}, error) {
		return struct{}{}, fn(ctx, domain.TxRepositories{
			Tasks:     a.Tasks,
			Schedules: a.Schedules,
		})
	})
	return err
}
