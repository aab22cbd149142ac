package runner_test

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/runner"
)

func TestWorkerArgs(t *testing.T) {
	assert.Equal(t, []string{"worker", "--database=scenario1"}, runner.WorkerArgs("scenario1", ""))
	assert.Equal(t, []string{"worker", "--database=default", "--env=/etc/schedtask.env"}, runner.WorkerArgs("default", "/etc/schedtask.env"))
}

func TestProcessLauncher_LaunchWorker(t *testing.T) {
	skipWithoutShell(t)

	// Setup
	var gotName string
	var gotArgs []string
	l := runner.NewProcessLauncher("/usr/local/bin/schedtask", "", testLogger()).
		WithCommandFactory(func(name string, args ...string) *exec.Cmd {
			gotName = name
			gotArgs = args
			return exec.Command("true")
		})

	// Execute
	err := l.LaunchWorker(context.Background(), "default")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/schedtask", gotName)
	assert.Equal(t, []string{"worker", "--database=default"}, gotArgs)
}

func TestProcessLauncher_LaunchWorker_StartFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path semantics differ")
	}
	l := runner.NewProcessLauncher("/nonexistent/schedtask", "", testLogger())

	err := l.LaunchWorker(context.Background(), "default")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `database "default"`)
}

func TestNoopLauncher(t *testing.T) {
	assert.NoError(t, runner.NewNoopLauncher(testLogger()).LaunchWorker(context.Background(), "default"))
}
