package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// MemoryStore はテスト用のインメモリなタスク台帳・スケジュールストアです
// Do はトランザクションを直列化し、fn がエラーを返すと変更を巻き戻します
type MemoryStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	order     []uuid.UUID
	schedules map[string]*domain.Schedule
	users     map[string]*domain.User

	// CreateTaskHook が設定されている場合、Create の前に呼ばれエラーを返せます
	CreateTaskHook func(task *domain.Task) error
	// SaveTaskHook が設定されている場合、Save の前に呼ばれエラーを返せます
	SaveTaskHook func(task *domain.Task) error
	// UpdateNextRunHook が設定されている場合、UpdateNextRun の前に呼ばれエラーを返せます
	UpdateNextRunHook func(name string) error
}

// NewMemoryStore は空の MemoryStore を作成します
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:     map[uuid.UUID]*domain.Task{},
		schedules: map[string]*domain.Schedule{},
		users:     map[string]*domain.User{},
	}
}

var (
	_ domain.TaskRepository     = (*MemoryStore)(nil)
	_ domain.ScheduleRepository = (*MemoryStore)(nil)
	_ domain.UserReader         = (*MemoryStore)(nil)
	_ domain.UnitOfWork         = (*MemoryStore)(nil)
)

// === fixtures ===

// PutSchedule はスケジュールを登録します
func (m *MemoryStore) PutSchedule(s *domain.Schedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.Name] = cloneSchedule(s)
}

// PutTask はタスクをそのまま登録します
func (m *MemoryStore) PutTask(t *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = cloneTask(t)
}

// PutUser はユーザーを登録します
func (m *MemoryStore) PutUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Username] = &cp
}

// Tasks は作成順に全タスクのコピーを返します
func (m *MemoryStore) Tasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneTask(m.tasks[id]))
	}
	return out
}

// TasksNamed は指定名のタスクを作成順に返します
func (m *MemoryStore) TasksNamed(name string) []*domain.Task {
	var out []*domain.Task
	for _, t := range m.Tasks() {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// Schedule は登録済みスケジュールのコピーを返します
func (m *MemoryStore) Schedule(name string) *domain.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[name]
	if !ok {
		return nil
	}
	return cloneSchedule(s)
}

// === UnitOfWork ===

func (m *MemoryStore) Do(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	tasks, order, schedules := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(ctx, domain.TxRepositories{Tasks: m, Schedules: m}); err != nil {
		m.mu.Lock()
		m.tasks, m.order, m.schedules = tasks, order, schedules
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryStore) snapshotLocked() (map[uuid.UUID]*domain.Task, []uuid.UUID, map[string]*domain.Schedule) {
	tasks := make(map[uuid.UUID]*domain.Task, len(m.tasks))
	for id, t := range m.tasks {
		tasks[id] = cloneTask(t)
	}
	schedules := make(map[string]*domain.Schedule, len(m.schedules))
	for name, s := range m.schedules {
		schedules[name] = cloneSchedule(s)
	}
	return tasks, append([]uuid.UUID(nil), m.order...), schedules
}

// === TaskRepository ===

func (m *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return cloneTask(t), nil
}

func (m *MemoryStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateTaskHook != nil {
		if err := m.CreateTaskHook(task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	m.tasks[task.ID] = cloneTask(task)
	m.order = append(m.order, task.ID)
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, task *domain.Task) error {
	if m.SaveTaskHook != nil {
		if err := m.SaveTaskHook(task); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
	}
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *MemoryStore) UpdateProgress(ctx context.Context, id uuid.UUID, status domain.TaskStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	t.Status = status
	t.Message = message
	return nil
}

func (m *MemoryStore) ClaimNextWaiting(ctx context.Context, pid int) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidate *domain.Task
	for _, id := range m.order {
		t := m.tasks[id]
		if !t.IsFresh() || t.ProcessID != nil {
			continue
		}
		if candidate == nil || t.Submitted.Before(candidate.Submitted) {
			candidate = t
		}
	}
	if candidate == nil {
		return nil, nil
	}
	candidate.ProcessID = &pid
	return cloneTask(candidate), nil
}

// === ScheduleRepository ===

func (m *MemoryStore) GetByName(ctx context.Context, name string) (*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[name]
	if !ok {
		return nil, fmt.Errorf("schedule %q: %w", name, domain.ErrNotFound)
	}
	return cloneSchedule(s), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, cloneSchedule(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) MinNextRun(ctx context.Context) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var earliest *time.Time
	for _, s := range m.schedules {
		if s.NextRun == nil {
			continue
		}
		if earliest == nil || s.NextRun.Before(*earliest) {
			v := *s.NextRun
			earliest = &v
		}
	}
	return earliest, nil
}

func (m *MemoryStore) ListDueForUpdate(ctx context.Context, now time.Time) ([]*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.Schedule
	for _, s := range m.schedules {
		if s.IsDue(now) {
			due = append(due, cloneSchedule(s))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextRun.Equal(*due[j].NextRun) {
			return due[i].NextRun.Before(*due[j].NextRun)
		}
		return due[i].Name < due[j].Name
	})
	return due, nil
}

func (m *MemoryStore) UpdateNextRun(ctx context.Context, name string, nextRun *time.Time) error {
	if m.UpdateNextRunHook != nil {
		if err := m.UpdateNextRunHook(name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[name]
	if !ok {
		return fmt.Errorf("schedule %q: %w", name, domain.ErrNotFound)
	}
	if nextRun == nil {
		s.NextRun = nil
	} else {
		v := *nextRun
		s.NextRun = &v
	}
	return nil
}

// === UserReader ===

func (m *MemoryStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func cloneTask(t *domain.Task) *domain.Task {
	cp := *t
	if t.Started != nil {
		v := *t.Started
		cp.Started = &v
	}
	if t.Finished != nil {
		v := *t.Finished
		cp.Finished = &v
	}
	if t.ProcessID != nil {
		v := *t.ProcessID
		cp.ProcessID = &v
	}
	if t.UserID != nil {
		v := *t.UserID
		cp.UserID = &v
	}
	return &cp
}

func cloneSchedule(s *domain.Schedule) *domain.Schedule {
	cp := *s
	cp.Steps = append([]domain.Step(nil), s.Steps...)
	if s.NextRun != nil {
		v := *s.NextRun
		cp.NextRun = &v
	}
	if s.UserID != nil {
		v := *s.UserID
		cp.UserID = &v
	}
	return &cp
}
