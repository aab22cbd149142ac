package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/schedtask/internal/module/scheduling/application"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
	"github.com/jinford/schedtask/internal/platform/container"
)

// ScheduleTasksAction は scheduletasks コマンドのアクション
// --schedule 指定時はそのスケジュールを実行し、未指定時は期限到来スケジュールを収穫する
func ScheduleTasksAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")
	scheduleName := cmd.String("schedule")
	username := cmd.String("user")

	taskID, err := parseTaskID(cmd.String("task"))
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(ctx, envFile, alias)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if scheduleName == "" {
		if taskID != nil || username != "" {
			slog.Warn("--task と --user は --schedule 指定時のみ有効です")
		}
		return runDueSchedules(ctx, appCtx.Container)
	}

	return runSchedule(ctx, appCtx.Container, application.ExecuteRequest{
		Database:     appCtx.Container.Alias,
		ScheduleName: scheduleName,
		TaskID:       taskID,
		Username:     username,
	})
}

func runDueSchedules(ctx context.Context, c *container.Container) error {
	result, err := c.Scheduler.RunDueSchedules(ctx, c.Alias)
	if result != nil {
		next := "-"
		if result.NextWakeUp != nil {
			next = result.NextWakeUp.Format(time.RFC3339)
		}
		slog.Info("期限到来スケジュールの収穫が完了", "database", c.Alias, "created", len(result.Harvest.Created), "nextWakeUp", next)
	}
	if err != nil {
		var timerErr *domain.TimerError
		if errors.As(err, &timerErr) {
			slog.Error("タイマーの再設定に失敗しました。scheduletasks を手動で再実行してください", "database", c.Alias, "at", timerErr.At)
		}
		return fmt.Errorf("スケジュールの収穫に失敗: %w", err)
	}
	return nil
}

func runSchedule(ctx context.Context, c *container.Container, req application.ExecuteRequest) error {
	task, err := c.Executor.Execute(ctx, req)
	if task != nil {
		fmt.Printf("Task:    %s\n", task.ID)
		fmt.Printf("Status:  %s\n", task.Status)
		if task.Message != "" {
			fmt.Printf("Message: %s\n", task.Message)
		}
	}
	if err != nil {
		return fmt.Errorf("スケジュール %q の実行に失敗: %w", req.ScheduleName, err)
	}
	if task != nil && task.Status == domain.TaskStatusFailed {
		return fmt.Errorf("スケジュール %q のステップが失敗しました: %s", req.ScheduleName, task.Message)
	}
	return nil
}
