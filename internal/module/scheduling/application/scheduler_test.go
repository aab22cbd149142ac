package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/application"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
	testutil "github.com/jinford/schedtask/internal/module/scheduling/testing"
)

func newTestScheduler(store *testutil.MemoryStore, launcher *testutil.MockWorkerLauncher, timer *testutil.MockTimer, now time.Time) *application.Scheduler {
	return application.NewScheduler(
		application.NewHarvester(store, launcher, testLogger()).WithClock(testutil.FixedClock(now)),
		application.NewRearmer(store, timer, testLogger()),
	)
}

func TestScheduler_RunDueSchedules(t *testing.T) {
	// Setup
	ctx := context.Background()
	scanAt := time.Date(2024, 1, 1, 2, 5, 0, 0, time.UTC)
	store := testutil.NewMemoryStore()
	store.PutSchedule(testutil.TestSchedule("S", testutil.TimePtr(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC))))
	launcher := &testutil.MockWorkerLauncher{}
	timer := &testutil.MockTimer{}

	// Execute
	result, err := newTestScheduler(store, launcher, timer, scanAt).RunDueSchedules(ctx, "default")

	// Assert
	require.NoError(t, err)
	assert.Len(t, result.Harvest.Created, 1)
	require.NotNil(t, result.NextWakeUp)
	assert.Equal(t, time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC), *result.NextWakeUp)
	require.Len(t, timer.Calls, 1)
	assert.Equal(t, *result.NextWakeUp, timer.Calls[0].At)
}

func TestScheduler_RunDueSchedules_LaunchFailureStillRearms(t *testing.T) {
	ctx := context.Background()
	scanAt := time.Date(2024, 1, 1, 2, 5, 0, 0, time.UTC)
	store := testutil.NewMemoryStore()
	store.PutSchedule(testutil.TestSchedule("S", testutil.TimePtr(scanAt.Add(-time.Minute))))
	launchErr := errors.New("fork failed")
	timer := &testutil.MockTimer{}

	result, err := newTestScheduler(store, &testutil.MockWorkerLauncher{Err: launchErr}, timer, scanAt).
		RunDueSchedules(ctx, "default")

	require.Error(t, err)
	assert.ErrorIs(t, err, launchErr)
	require.NotNil(t, result)
	assert.Len(t, timer.Calls, 1)
}

func TestScheduler_RunDueSchedules_TimerFailureKeepsTasks(t *testing.T) {
	ctx := context.Background()
	scanAt := time.Date(2024, 1, 1, 2, 5, 0, 0, time.UTC)
	store := testutil.NewMemoryStore()
	store.PutSchedule(testutil.TestSchedule("S", testutil.TimePtr(scanAt.Add(-time.Minute))))
	timer := &testutil.MockTimer{Err: errors.New("permission denied")}

	result, err := newTestScheduler(store, &testutil.MockWorkerLauncher{}, timer, scanAt).
		RunDueSchedules(ctx, "default")

	var timerErr *domain.TimerError
	require.ErrorAs(t, err, &timerErr)
	require.NotNil(t, result)
	assert.Len(t, store.Tasks(), 1)
}

func TestScheduler_RunDueSchedules_HarvestFailureSkipsTimer(t *testing.T) {
	ctx := context.Background()
	scanAt := time.Now()
	store := testutil.NewMemoryStore()
	store.PutSchedule(testutil.TestSchedule("S", testutil.TimePtr(scanAt.Add(-time.Minute))))
	store.CreateTaskHook = func(task *domain.Task) error { return errors.New("disk full") }
	timer := &testutil.MockTimer{}

	result, err := newTestScheduler(store, &testutil.MockWorkerLauncher{}, timer, scanAt).
		RunDueSchedules(ctx, "default")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, timer.Calls)
}
