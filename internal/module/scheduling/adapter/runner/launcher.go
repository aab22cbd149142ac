package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// CommandFactory は実行するコマンドを組み立てます（テストで差し替え可能）
type CommandFactory func(name string, args ...string) *exec.Cmd

// ProcessLauncher は `<executable> worker --database=<db>` を切り離したプロセスとして起動します
type ProcessLauncher struct {
	executable string
	envFile    string
	command    CommandFactory
	log        *slog.Logger
}

// NewProcessLauncher は新しいProcessLauncherを作成します
func NewProcessLauncher(executable, envFile string, log *slog.Logger) *ProcessLauncher {
	return &ProcessLauncher{
		executable: executable,
		envFile:    envFile,
		command:    exec.Command,
		log:        log,
	}
}

// WithCommandFactory はコマンド生成関数を差し替えます
func (l *ProcessLauncher) WithCommandFactory(factory CommandFactory) *ProcessLauncher {
	l.command = factory
	return l
}

var _ domain.WorkerLauncher = (*ProcessLauncher)(nil)

// LaunchWorker はワーカープロセスを起動し、終了を待たずに戻ります
func (l *ProcessLauncher) LaunchWorker(ctx context.Context, database string) error {
	cmd := l.command(l.executable, WorkerArgs(database, l.envFile)...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start worker for database %q: %w", database, err)
	}

	l.log.Info("Worker launched", "database", database, "pid", cmd.Process.Pid)

	// ゾンビプロセスを残さないよう回収だけ行う
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// WorkerArgs はワーカー起動時のコマンドライン引数を返します
func WorkerArgs(database, envFile string) []string {
	args := []string{"worker", "--database=" + database}
	if envFile != "" {
		args = append(args, "--env="+envFile)
	}
	return args
}

// NoopLauncher はワーカーを起動せず、ログだけを出力します
// 常駐ワーカーを別途運用する場合に使用します
type NoopLauncher struct {
	log *slog.Logger
}

// NewNoopLauncher は新しいNoopLauncherを作成します
func NewNoopLauncher(log *slog.Logger) *NoopLauncher {
	return &NoopLauncher{log: log}
}

var _ domain.WorkerLauncher = (*NoopLauncher)(nil)

func (l *NoopLauncher) LaunchWorker(ctx context.Context, database string) error {
	l.log.Info("Worker launch disabled; waiting tasks are left for a running worker", "database", database)
	return nil
}
