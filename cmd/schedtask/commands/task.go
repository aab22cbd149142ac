package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// TaskShowAction はタスクの状態を表示するコマンドのアクション
func TaskShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")

	id, err := parseTaskID(cmd.String("id"))
	if err != nil {
		return err
	}
	if id == nil {
		return fmt.Errorf("--id は必須です")
	}

	appCtx, err := NewAppContext(ctx, envFile, alias)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	task, err := appCtx.Container.Tasks.GetByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("タスクの取得に失敗: %w", err)
	}

	fmt.Printf("\n=== タスク詳細 ===\n\n")
	fmt.Printf("ID:          %s\n", task.ID)
	fmt.Printf("Name:        %s\n", task.Name)
	fmt.Printf("Arguments:   %s\n", valueOrDash(task.Arguments))
	fmt.Printf("Status:      %s\n", task.Status)
	fmt.Printf("Submitted:   %s\n", formatTime(&task.Submitted))
	fmt.Printf("Started:     %s\n", formatTime(task.Started))
	fmt.Printf("Finished:    %s\n", formatTime(task.Finished))
	if task.ProcessID != nil {
		fmt.Printf("Process ID:  %d\n", *task.ProcessID)
	}
	if task.Message != "" {
		fmt.Printf("\nメッセージ:\n%s\n", task.Message)
	}
	return nil
}
