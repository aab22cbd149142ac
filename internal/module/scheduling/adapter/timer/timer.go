package timer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// バックエンド名
const (
	BackendAt       = "at"
	BackendSchtasks = "schtasks"
	BackendSystemd  = "systemd"
	BackendNone     = "none"
)

// Options はタイマーバックエンドの共通設定です
type Options struct {
	Backend string
	// タイマーから再実行するバイナリと .env
	Executable string
	EnvFile    string
	// at バックエンドがジョブIDを記録するディレクトリ
	StateDir string
}

// New は設定されたバックエンドのタイマーを作成します
func New(opts Options, log *slog.Logger) (domain.Timer, error) {
	switch opts.Backend {
	case BackendAt, "":
		return NewAt(opts.Executable, opts.EnvFile, opts.StateDir, log), nil
	case BackendSchtasks:
		return NewSchtasks(opts.Executable, opts.EnvFile, log), nil
	case BackendSystemd:
		return NewSystemd(log), nil
	case BackendNone:
		return NewNone(log), nil
	default:
		return nil, fmt.Errorf("unsupported timer backend %q: %w", opts.Backend, domain.ErrConfig)
	}
}

// CommandRunner は外部コマンドを stdin 付きで実行し、結合出力を返します
type CommandRunner func(ctx context.Context, stdin string, name string, args ...string) (string, error)

func execCommand(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return out.String(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out.String(), fmt.Errorf("%s: %w", name, err)
	}
	return out.String(), nil
}

// SchedulerArgs はタイマーが起動するコマンドライン引数を返します
func SchedulerArgs(database, envFile string) []string {
	args := []string{"scheduletasks", "--database=" + database}
	if envFile != "" {
		args = append(args, "--env="+envFile)
	}
	return args
}

// WakeMinute は分単位のタイマーで使う起動時刻を返します
// 分の途中の時刻は次の分に切り上げ、now 以前の時刻は now の次の分にします
func WakeMinute(at, now time.Time) time.Time {
	wake := at.Truncate(time.Minute)
	if wake.Before(at) {
		wake = wake.Add(time.Minute)
	}
	if !wake.After(now) {
		wake = now.Truncate(time.Minute).Add(time.Minute)
	}
	return wake
}

// shellQuote は sh に渡す引数を単一引用符で囲みます
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
