package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// outputTailLimit はメッセージに残す出力末尾のバイト数
const outputTailLimit = 2000

// waitDelay はキャンセル後に出力パイプの close を待つ上限
const waitDelay = 5 * time.Second

// ExecHandler は外部コマンドとしてステップを実行します
type ExecHandler struct {
	Command         []string
	AppendArguments bool
	Env             map[string]string
	Dir             string
	Timeout         time.Duration
}

// Run はコマンドを実行し、失敗時は出力の末尾をエラーに含めます
func (h *ExecHandler) Run(ctx context.Context, req Request) error {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.Command[0], h.args(req)...)
	cmd.Dir = h.Dir
	cmd.WaitDelay = waitDelay
	cmd.Env = h.environ(req)

	out := &tailBuffer{limit: outputTailLimit}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", h.Timeout)
		}
		if tail := strings.TrimSpace(out.String()); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

func (h *ExecHandler) args(req Request) []string {
	args := append([]string{}, h.Command[1:]...)
	if h.AppendArguments && req.Task != nil {
		args = append(args, strings.Fields(req.Task.Arguments)...)
	}
	return args
}

func (h *ExecHandler) environ(req Request) []string {
	env := os.Environ()
	env = append(env, "SCHEDTASK_DATABASE="+req.Database)
	if req.Task != nil {
		env = append(env, "SCHEDTASK_TASK_ID="+req.Task.ID.String())
	}

	keys := make([]string, 0, len(h.Env))
	for k := range h.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+h.Env[k])
	}
	return env
}

// tailBuffer は書き込まれた内容のうち末尾 limit バイトだけを保持します
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
