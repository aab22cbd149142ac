package timer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// DefaultSchtasksDateLayout は /sd に渡す日付の書式
// schtasks はロケールの短い日付形式を要求するため WithDateLayout で変更できます
const DefaultSchtasksDateLayout = "01/02/2006"

// Schtasks は Windows のタスクスケジューラにワンショット起動を登録します
// 同名タスクを /f で上書きするため再登録は冪等です
type Schtasks struct {
	executable string
	envFile    string
	dateLayout string
	run        CommandRunner
	now        func() time.Time
	log        *slog.Logger
}

// NewSchtasks は新しいSchtasksタイマーを作成します
func NewSchtasks(executable, envFile string, log *slog.Logger) *Schtasks {
	return &Schtasks{
		executable: executable,
		envFile:    envFile,
		dateLayout: DefaultSchtasksDateLayout,
		run:        execCommand,
		now:        time.Now,
		log:        log,
	}
}

// WithRunner はコマンド実行関数を差し替えます
func (s *Schtasks) WithRunner(run CommandRunner) *Schtasks {
	s.run = run
	return s
}

// WithClock は現在時刻の取得関数を差し替えます
func (s *Schtasks) WithClock(now func() time.Time) *Schtasks {
	s.now = now
	return s
}

// WithDateLayout は /sd の日付書式を差し替えます
func (s *Schtasks) WithDateLayout(layout string) *Schtasks {
	s.dateLayout = layout
	return s
}

var _ domain.Timer = (*Schtasks)(nil)

// Arm は "schedtask <database>" という名前のタスクを作成または上書きします
func (s *Schtasks) Arm(ctx context.Context, database string, at time.Time) error {
	if _, err := s.run(ctx, "", "schtasks", s.Args(database, at)...); err != nil {
		return fmt.Errorf("failed to create scheduled task: %w", err)
	}
	return nil
}

// Args は schtasks /create の引数を返します
func (s *Schtasks) Args(database string, at time.Time) []string {
	wake := WakeMinute(at, s.now()).Local()

	command := []string{`"` + s.executable + `"`}
	command = append(command, SchedulerArgs(database, s.envFile)...)

	return []string{
		"/create", "/f",
		"/tn", "schedtask " + database,
		"/sc", "once",
		"/sd", wake.Format(s.dateLayout),
		"/st", wake.Format("15:04"),
		"/tr", strings.Join(command, " "),
	}
}
