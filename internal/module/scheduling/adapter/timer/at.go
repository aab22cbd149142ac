package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

var atJobPattern = regexp.MustCompile(`job\s+(\d+)\s+at`)

// At は POSIX の at(1) でワンショット起動を登録します
// 登録したジョブIDをデータベースごとに記録し、再登録時に前のジョブを atrm で取り消します
type At struct {
	executable string
	envFile    string
	stateDir   string
	run        CommandRunner
	now        func() time.Time
	log        *slog.Logger
}

// NewAt は新しいAtタイマーを作成します
func NewAt(executable, envFile, stateDir string, log *slog.Logger) *At {
	return &At{
		executable: executable,
		envFile:    envFile,
		stateDir:   stateDir,
		run:        execCommand,
		now:        time.Now,
		log:        log,
	}
}

// WithRunner はコマンド実行関数を差し替えます
func (a *At) WithRunner(run CommandRunner) *At {
	a.run = run
	return a
}

// WithClock は現在時刻の取得関数を差し替えます
func (a *At) WithClock(now func() time.Time) *At {
	a.now = now
	return a
}

var _ domain.Timer = (*At)(nil)

// Arm は前回のジョブを取り消してから at ジョブを登録します
func (a *At) Arm(ctx context.Context, database string, at time.Time) error {
	statePath := a.statePath(database)

	if previous, err := readJobID(statePath); err != nil {
		return err
	} else if previous != "" {
		// 実行済みのジョブは atrm が失敗するが問題ない
		if _, err := a.run(ctx, "", "atrm", previous); err != nil {
			a.log.Debug("Previous at job not removed", "database", database, "job", previous, "error", err)
		}
	}

	wake := WakeMinute(at, a.now()).Local()
	out, err := a.run(ctx, a.script(database), "at", "-t", wake.Format("200601021504"))
	if err != nil {
		return fmt.Errorf("failed to submit at job: %w", err)
	}

	jobID, err := parseAtJobID(out)
	if err != nil {
		return err
	}
	if err := writeJobID(statePath, jobID); err != nil {
		return err
	}

	a.log.Debug("at job submitted", "database", database, "job", jobID, "wake", wake.Format(time.RFC3339))
	return nil
}

func (a *At) script(database string) string {
	parts := []string{shellQuote(a.executable)}
	for _, arg := range SchedulerArgs(database, a.envFile) {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ") + "\n"
}

func (a *At) statePath(database string) string {
	return filepath.Join(a.stateDir, "at-"+strings.ReplaceAll(database, string(os.PathSeparator), "_")+".job")
}

func parseAtJobID(out string) (string, error) {
	m := atJobPattern.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("unexpected at output %q", strings.TrimSpace(out))
	}
	return m[1], nil
}

func readJobID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read at job state: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeJobID(path, jobID string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create timer state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(jobID+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write at job state: %w", err)
	}
	return nil
}
