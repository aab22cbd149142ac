package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

func TestStepProgress(t *testing.T) {
	tests := []struct {
		step, total int
		expected    domain.TaskStatus
	}{
		{1, 1, "100%"},
		{1, 2, "50%"},
		{1, 3, "33%"},
		{2, 3, "66%"},
		{3, 3, "100%"},
		{0, 0, "100%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, domain.StepProgress(tt.step, tt.total))
	}
}

func TestTask_IsFresh(t *testing.T) {
	now := time.Now()

	fresh := domain.NewWaitingTask("schedule", "nightly", nil, now)
	assert.True(t, fresh.IsFresh())

	started := domain.NewWaitingTask("schedule", "nightly", nil, now)
	started.Started = &now
	assert.False(t, started.IsFresh())

	running := domain.NewWaitingTask("schedule", "nightly", nil, now)
	running.Status = domain.ProgressStatus(10)
	assert.False(t, running.IsFresh())
}

func TestTask_FinishKeepsTimestampsMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	task := domain.NewWaitingTask("importA", "", nil, start)
	task.MarkStarted(start, 42)

	task.Finish(domain.TaskStatusDone, "", start.Add(-time.Second))

	assert.Equal(t, domain.TaskStatusDone, task.Status)
	assert.Nil(t, task.ProcessID)
	assert.False(t, task.Finished.Before(*task.Started))
}

func TestTask_FinishWithoutStart(t *testing.T) {
	now := time.Now()
	task := domain.NewWaitingTask("importA", "", nil, now)

	task.Finish(domain.TaskStatusFailed, "boom", now)

	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	assert.Equal(t, "boom", task.Message)
	assert.NotNil(t, task.Started)
	assert.Equal(t, *task.Started, *task.Finished)
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.TaskStatusDone.IsTerminal())
	assert.True(t, domain.TaskStatusFailed.IsTerminal())
	assert.False(t, domain.TaskStatusWaiting.IsTerminal())
	assert.False(t, domain.ProgressStatus(50).IsTerminal())
}
