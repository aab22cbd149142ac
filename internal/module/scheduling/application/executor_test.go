package application_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/application"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
	testutil "github.com/jinford/schedtask/internal/module/scheduling/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type executorFixture struct {
	store   *testutil.MemoryStore
	runner  *testutil.FakeStepRunner
	catalog *testutil.MockStepCatalog
	exec    *application.Executor
}

func newExecutorFixture(schedules ...*domain.Schedule) *executorFixture {
	store := testutil.NewMemoryStore()
	for _, s := range schedules {
		store.PutSchedule(s)
	}
	runner := &testutil.FakeStepRunner{Store: store, Outcomes: map[string]domain.TaskStatus{}}
	catalog := &testutil.MockStepCatalog{}
	exec := application.NewExecutor(application.ExecutorDeps{
		Schedules: store,
		Tasks:     store,
		Users:     store,
		Runner:    runner,
		Catalog:   catalog,
	}, testLogger()).WithProcessID(4242)

	return &executorFixture{store: store, runner: runner, catalog: catalog, exec: exec}
}

func TestExecutor_Execute_AllStepsDone(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil,
		testutil.TestStep("importA", false),
		testutil.TestStep("importB", false),
		testutil.TestStep("runplan", false),
	))

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "daily"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, parent.Status)
	assert.Equal(t, "", parent.Message)
	assert.Equal(t, application.RunTaskName, parent.Name)
	assert.Nil(t, parent.ProcessID)
	require.NotNil(t, parent.Started)
	require.NotNil(t, parent.Finished)
	assert.False(t, parent.Finished.Before(*parent.Started))

	assert.Len(t, f.store.Tasks(), 4)
	assert.Equal(t, 3, f.runner.CallCount())
	for i, name := range []string{"importA", "importB", "runplan"} {
		assert.Equal(t, name, f.runner.Calls[i].Name)
	}
}

func TestExecutor_Execute_FailuresWithoutAbortContinue(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil,
		testutil.TestStep("importA", false),
		testutil.TestStep("importB", false),
		testutil.TestStep("runplan", false),
	))
	f.runner.Outcomes["importB"] = domain.TaskStatusFailed
	f.runner.Outcomes["runplan"] = domain.TaskStatusFailed

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "daily"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, f.runner.CallCount())
	assert.Equal(t, domain.TaskStatusFailed, parent.Status)

	importB := f.store.TasksNamed("importB")
	runplan := f.store.TasksNamed("runplan")
	require.Len(t, importB, 1)
	require.Len(t, runplan, 1)
	assert.Equal(t, fmt.Sprintf("Failed at tasks: %s, %s", importB[0].ID, runplan[0].ID), parent.Message)
}

func TestExecutor_Execute_AbortOnFailure(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("nightly", nil,
		testutil.TestStep("importA", true),
		testutil.TestStep("importB", false),
	))
	f.runner.Outcomes["importA"] = domain.TaskStatusFailed

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "nightly"})

	// Assert
	require.Error(t, err)
	var runErr *domain.RunFailure
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 1, runErr.Step)
	assert.Equal(t, 2, runErr.Total)

	require.NotNil(t, parent)
	assert.Equal(t, domain.TaskStatusFailed, parent.Status)
	assert.Equal(t, "Failed at step 1 of 2", parent.Message)
	assert.NotNil(t, parent.Finished)
	assert.Nil(t, parent.ProcessID)

	assert.Len(t, f.store.TasksNamed("importA"), 1)
	assert.Empty(t, f.store.TasksNamed("importB"))
	assert.Equal(t, 1, f.runner.CallCount())
}

func TestExecutor_Execute_AbortAtLaterStep(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("weekly", nil,
		testutil.TestStep("a", false),
		testutil.TestStep("b", false),
		testutil.TestStep("c", true),
		testutil.TestStep("d", false),
		testutil.TestStep("e", false),
	))
	f.runner.Outcomes["c"] = domain.TaskStatusFailed

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "weekly"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, "Failed at step 3 of 5", parent.Message)
	assert.Len(t, f.store.Tasks(), 1+3)
}

func TestExecutor_Execute_ZeroSteps(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("empty", nil))

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "empty"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, parent.Status)
	assert.Len(t, f.store.Tasks(), 1)
	assert.Equal(t, 0, f.runner.CallCount())
}

func TestExecutor_Execute_ReportsProgress(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil,
		testutil.TestStep("a", false),
		testutil.TestStep("b", false),
		testutil.TestStep("c", false),
		testutil.TestStep("d", false),
	))

	type observation struct {
		status  domain.TaskStatus
		message string
	}
	var observed []observation
	f.runner.RunTaskFunc = func(ctx context.Context, database string, task *domain.Task) error {
		parents := f.store.TasksNamed(application.RunTaskName)
		require.Len(t, parents, 1)
		observed = append(observed, observation{parents[0].Status, parents[0].Message})
		assert.Equal(t, fmt.Sprintf("Running task %s as step %d of 4", task.ID, len(observed)), parents[0].Message)

		// 子タスクは作成時点でこのプロセスの所有
		require.NotNil(t, task.ProcessID)
		assert.Equal(t, 4242, *task.ProcessID)
		assert.Equal(t, domain.TaskStatusWaiting, task.Status)

		stored, err := f.store.GetByID(ctx, task.ID)
		require.NoError(t, err)
		stored.Finish(domain.TaskStatusDone, "", time.Now())
		return f.store.Save(ctx, stored)
	}

	// Execute
	_, err := f.exec.Execute(ctx, application.ExecuteRequest{Database: "default", ScheduleName: "daily"})

	// Assert
	require.NoError(t, err)
	require.Len(t, observed, 4)
	assert.Equal(t, domain.TaskStatus("25%"), observed[0].status)
	assert.Equal(t, domain.TaskStatus("50%"), observed[1].status)
	assert.Equal(t, domain.TaskStatus("75%"), observed[2].status)
	assert.Equal(t, domain.TaskStatus("100%"), observed[3].status)
}

func TestExecutor_Execute_ExistingTask(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))
	owner := uuid.New()
	existing := domain.NewWaitingTask(application.ScheduleTaskName, "daily", &owner, time.Now())
	f.store.PutTask(existing)

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{
		Database:     "default",
		ScheduleName: "daily",
		TaskID:       &existing.ID,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, existing.ID, parent.ID)
	assert.Equal(t, domain.TaskStatusDone, parent.Status)
	assert.Len(t, f.store.Tasks(), 2)

	child := f.store.TasksNamed("importA")[0]
	require.NotNil(t, child.UserID)
	assert.Equal(t, owner, *child.UserID)
}

func TestExecutor_Execute_InvalidExistingTask(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(task *domain.Task)
	}{
		{"already started", func(task *domain.Task) { task.Started = &now }},
		{"already finished", func(task *domain.Task) { task.Finished = &now }},
		{"not waiting", func(task *domain.Task) { task.Status = domain.ProgressStatus(10) }},
		{"done", func(task *domain.Task) { task.Status = domain.TaskStatusDone }},
		{"not an entry point", func(task *domain.Task) { task.Name = "importA" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			ctx := context.Background()
			f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))
			task := domain.NewWaitingTask(application.ScheduleTaskName, "daily", nil, now)
			tt.mutate(task)
			f.store.PutTask(task)

			// Execute
			parent, err := f.exec.Execute(ctx, application.ExecuteRequest{
				Database:     "default",
				ScheduleName: "daily",
				TaskID:       &task.ID,
			})

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidTask)
			assert.Nil(t, parent)
			assert.Len(t, f.store.Tasks(), 1)
			assert.Equal(t, 0, f.runner.CallCount())

			stored, err := f.store.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, task.Status, stored.Status)
		})
	}
}

func TestExecutor_Execute_UnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))
	missing := uuid.New()

	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily", TaskID: &missing})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, parent)
	assert.Empty(t, f.store.Tasks())
}

func TestExecutor_Execute_UnknownSchedule(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture()

	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "missing"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, parent)
	assert.Empty(t, f.store.Tasks())
}

func TestExecutor_Execute_UnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))

	_, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily", Username: "nobody"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.Tasks())
}

func TestExecutor_Execute_UserOwnsTasks(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))
	user := &domain.User{ID: uuid.New(), Username: "planner"}
	f.store.PutUser(user)

	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily", Username: "planner"})

	require.NoError(t, err)
	require.NotNil(t, parent.UserID)
	assert.Equal(t, user.ID, *parent.UserID)
	child := f.store.TasksNamed("importA")[0]
	require.NotNil(t, child.UserID)
	assert.Equal(t, user.ID, *child.UserID)
}

func TestExecutor_Execute_UnknownStepIsConfigError(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("nope", false)))
	f.catalog.ValidateFunc = func(names []string) error {
		return fmt.Errorf("%w: unknown step %q", domain.ErrConfig, names[0])
	}

	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Nil(t, parent)
	assert.Empty(t, f.store.Tasks())
}

func TestExecutor_Execute_RunnerErrorFailsParent(t *testing.T) {
	// Setup
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil,
		testutil.TestStep("importA", false),
		testutil.TestStep("importB", false),
	))
	adapterErr := errors.New("engine unreachable")
	f.runner.RunTaskFunc = func(ctx context.Context, database string, task *domain.Task) error {
		return adapterErr
	}

	// Execute
	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily"})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, adapterErr)
	require.NotNil(t, parent)
	assert.Equal(t, domain.TaskStatusFailed, parent.Status)
	assert.Contains(t, parent.Message, "engine unreachable")
	assert.Nil(t, parent.ProcessID)
	assert.NotNil(t, parent.Finished)
	assert.Len(t, f.store.TasksNamed("importA"), 1)
	assert.Empty(t, f.store.TasksNamed("importB"))
}

func TestExecutor_Execute_ParentCreationFailure(t *testing.T) {
	ctx := context.Background()
	f := newExecutorFixture(testutil.TestSchedule("daily", nil, testutil.TestStep("importA", false)))
	dbErr := errors.New("connection reset")
	f.store.CreateTaskHook = func(task *domain.Task) error { return dbErr }

	parent, err := f.exec.Execute(ctx, application.ExecuteRequest{ScheduleName: "daily"})

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, parent)
	assert.Empty(t, f.store.Tasks())
}
