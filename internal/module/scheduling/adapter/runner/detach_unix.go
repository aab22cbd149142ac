//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// detach は親プロセスの終了やシグナルの影響を受けないよう新しいセッションで起動させます
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
