package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// WorkerAction は Waiting タスクを処理するワーカーのアクション
func WorkerAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")

	appCtx, err := NewAppContext(ctx, envFile, alias)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	processed, err := appCtx.Container.Worker.Run(ctx, appCtx.Container.Alias)
	if err != nil {
		return fmt.Errorf("ワーカーの実行に失敗: %w", err)
	}

	slog.Info("ワーカーを終了します", "database", appCtx.Container.Alias, "processed", processed)
	return nil
}
