package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg"
)

// MigrateAction は埋め込みスキーマをデータベースに適用するアクション
func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")

	cfg, _, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, alias)
	if err != nil {
		return fmt.Errorf("データベース接続に失敗: %w", err)
	}
	defer db.Close()

	applied, err := pg.Migrate(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}

	slog.Info("スキーマを適用しました", "database", db.Alias, "files", applied)
	return nil
}
