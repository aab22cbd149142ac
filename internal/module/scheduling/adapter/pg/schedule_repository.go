package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// ScheduleRepository はスケジュールの永続化アダプターです
type ScheduleRepository struct {
	q sqlc.Querier
}

// NewScheduleRepository は新しいスケジュールリポジトリを作成します
func NewScheduleRepository(q sqlc.Querier) *ScheduleRepository {
	return &ScheduleRepository{q: q}
}

// 読み取り操作の実装

var _ domain.ScheduleReader = (*ScheduleRepository)(nil)

// GetByName は名前でスケジュールを取得します
func (r *ScheduleRepository) GetByName(ctx context.Context, name string) (*domain.Schedule, error) {
	row, err := r.q.GetScheduledTask(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("schedule %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return convertSQLCSchedule(row)
}

// List はすべてのスケジュールを名前順で取得します
func (r *ScheduleRepository) List(ctx context.Context) ([]*domain.Schedule, error) {
	rows, err := r.q.ListScheduledTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return convertSQLCSchedules(rows)
}

// MinNextRun は最も早い次回実行時刻を返します
func (r *ScheduleRepository) MinNextRun(ctx context.Context) (*time.Time, error) {
	earliest, err := r.q.GetMinNextRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get earliest next run: %w", err)
	}
	return PgtypeToTimePtr(earliest), nil
}

// 書き込み操作の実装

var _ domain.ScheduleWriter = (*ScheduleRepository)(nil)

// ListDueForUpdate は期限到来済みのスケジュールを行ロック付きで取得します
func (r *ScheduleRepository) ListDueForUpdate(ctx context.Context, now time.Time) ([]*domain.Schedule, error) {
	rows, err := r.q.ListDueScheduledTasksForUpdate(ctx, TimeToPgtype(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	return convertSQLCSchedules(rows)
}

// UpdateNextRun は次回実行時刻を更新します（nil でクリア）
func (r *ScheduleRepository) UpdateNextRun(ctx context.Context, name string, nextRun *time.Time) error {
	affected, err := r.q.UpdateScheduledTaskNextRun(ctx, sqlc.UpdateScheduledTaskNextRunParams{
		Name:    name,
		NextRun: TimePtrToPgtype(nextRun),
	})
	if err != nil {
		return fmt.Errorf("failed to update next run of schedule %q: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("schedule %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

// Upsert はスケジュールを登録または上書きします
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *domain.Schedule) error {
	steps, err := encodeSteps(schedule.Steps)
	if err != nil {
		return err
	}

	err = r.q.UpsertScheduledTask(ctx, sqlc.UpsertScheduledTaskParams{
		Name:       schedule.Name,
		Steps:      steps,
		Recurrence: schedule.Recurrence,
		UserID:     UUIDPtrToPgtype(schedule.UserID),
		NextRun:    TimePtrToPgtype(schedule.NextRun),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert schedule %q: %w", schedule.Name, err)
	}
	return nil
}

func convertSQLCSchedules(rows []sqlc.ScheduledTask) ([]*domain.Schedule, error) {
	result := make([]*domain.Schedule, 0, len(rows))
	for _, row := range rows {
		s, err := convertSQLCSchedule(row)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}
