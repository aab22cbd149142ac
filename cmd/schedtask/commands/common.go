package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/schedtask/internal/platform/config"
	"github.com/jinford/schedtask/internal/platform/container"
	"github.com/jinford/schedtask/internal/platform/database"
	"github.com/jinford/schedtask/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Logger    *slog.Logger
	Container *container.Container
}

// NewAppContext は設定ファイルを読み込み、指定データベースのコンテナを作成する
func NewAppContext(ctx context.Context, envFile, alias string) (*AppContext, error) {
	cfg, appLogger, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}

	cont, err := container.New(ctx, cfg, alias,
		container.WithLogger(appLogger),
		container.WithEnvFile(resolveEnvFile(envFile)),
	)
	if err != nil {
		return nil, fmt.Errorf("コンテナの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Logger:    appLogger,
		Container: cont,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Container != nil {
		ac.Container.Close()
	}
}

// loadConfig は設定を読み込み、ロガーを初期化する
func loadConfig(envFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, logger.New(logger.FromStrings(cfg.Log.Level, cfg.Log.Format)), nil
}

// openDatabase はコンテナを組み立てずに接続だけを行う
func openDatabase(ctx context.Context, cfg *config.Config, alias string) (*database.Database, error) {
	if alias == "" {
		alias = config.DefaultDatabase
	}
	dbCfg, err := cfg.Database(alias)
	if err != nil {
		return nil, err
	}
	return database.New(ctx, alias, database.ConnectionParams{
		Host:     dbCfg.Host,
		Port:     dbCfg.Port,
		User:     dbCfg.User,
		Password: dbCfg.Password,
		DBName:   dbCfg.DBName,
		SSLMode:  dbCfg.SSLMode,
	})
}

// resolveEnvFile は子プロセスやタイマーに引き継ぐ .env の絶対パスを返す
// ファイルが存在しない場合は空文字を返す
func resolveEnvFile(envFile string) string {
	if envFile == "" {
		return ""
	}
	abs, err := filepath.Abs(envFile)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(abs); err != nil {
		return ""
	}
	return abs
}

// parseTaskID は --task の値を解釈する（空なら nil）
func parseTaskID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("--task の形式が不正です: %q: %w", s, err)
	}
	return &id, nil
}

// formatTime は nil を "-" として時刻を表示用に整形する
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
