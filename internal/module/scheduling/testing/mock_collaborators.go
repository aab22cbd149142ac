package testing

import (
	"context"
	"sync"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// FakeStepRunner はタスクを即座に終了状態にするテスト用 StepRunner です
// Outcomes にステップ名ごとの終了状態を指定します（未指定は Done）
type FakeStepRunner struct {
	Store    *MemoryStore
	Outcomes map[string]domain.TaskStatus
	// RunTaskFunc が設定されている場合はそちらを優先します
	RunTaskFunc func(ctx context.Context, database string, task *domain.Task) error

	mu    sync.Mutex
	Calls []*domain.Task
}

func (f *FakeStepRunner) RunTask(ctx context.Context, database string, task *domain.Task) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, task)
	f.mu.Unlock()

	if f.RunTaskFunc != nil {
		return f.RunTaskFunc(ctx, database, task)
	}

	status := domain.TaskStatusDone
	if s, ok := f.Outcomes[task.Name]; ok {
		status = s
	}

	stored, err := f.Store.GetByID(ctx, task.ID)
	if err != nil {
		return err
	}
	stored.MarkStarted(time.Now(), 1)
	msg := ""
	if status == domain.TaskStatusFailed {
		msg = "step failed"
	}
	stored.Finish(status, msg, time.Now())
	return f.Store.Save(ctx, stored)
}

// CallCount は RunTask の呼び出し回数を返します
func (f *FakeStepRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// MockWorkerLauncher はテスト用の WorkerLauncher です
type MockWorkerLauncher struct {
	Err error

	mu        sync.Mutex
	Databases []string
}

func (m *MockWorkerLauncher) LaunchWorker(ctx context.Context, database string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Databases = append(m.Databases, database)
	return m.Err
}

// Count は起動要求の回数を返します
func (m *MockWorkerLauncher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Databases)
}

// ArmCall は Timer.Arm の呼び出し記録です
type ArmCall struct {
	Database string
	At       time.Time
}

// MockTimer はテスト用の Timer です
type MockTimer struct {
	Err error

	mu    sync.Mutex
	Calls []ArmCall
}

func (m *MockTimer) Arm(ctx context.Context, database string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ArmCall{Database: database, At: at})
	return m.Err
}

// MockStepCatalog はテスト用の StepCatalog です
type MockStepCatalog struct {
	ValidateFunc func(names []string) error
}

func (m *MockStepCatalog) Validate(names []string) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(names)
	}
	return nil
}

// MockWorkerLock はデータベース単位で保持状態を管理するテスト用 WorkerLock です
type MockWorkerLock struct {
	Err error

	mu   sync.Mutex
	held map[string]bool
}

func (m *MockWorkerLock) TryAcquire(ctx context.Context, database string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[database] {
		return nil, false, nil
	}
	m.held[database] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, database)
	}, true, nil
}

// Held はロックが保持中かを返します
func (m *MockWorkerLock) Held(database string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[database]
}
