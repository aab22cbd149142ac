package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus はタスクの状態を表します
// Waiting / "0%".."100%" / Done / Failed のいずれかを取ります
type TaskStatus string

const (
	TaskStatusWaiting TaskStatus = "Waiting"
	TaskStatusDone    TaskStatus = "Done"
	TaskStatusFailed  TaskStatus = "Failed"
)

// ProgressStatus は実行中タスクの進捗ステータス（"37%" 形式）を返します
func ProgressStatus(percent int) TaskStatus {
	return TaskStatus(fmt.Sprintf("%d%%", percent))
}

// StepProgress は N ステップ中 i 番目に入ったときの進捗ステータスを返します
func StepProgress(step, total int) TaskStatus {
	if total <= 0 {
		return ProgressStatus(100)
	}
	return ProgressStatus(step * 100 / total)
}

// IsTerminal は終了状態かどうかを返します
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed
}

// Task は追跡可能な作業単位（タスク台帳の1行）を表します
type Task struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Submitted time.Time  `json:"submitted"`
	Started   *time.Time `json:"started,omitempty"`
	Finished  *time.Time `json:"finished,omitempty"`
	Status    TaskStatus `json:"status"`
	Message   string     `json:"message"`
	UserID    *uuid.UUID `json:"userID,omitempty"`
	ProcessID *int       `json:"processID,omitempty"`
	Arguments string     `json:"arguments"`
}

// NewWaitingTask は Waiting 状態の新しいタスクを生成します
func NewWaitingTask(name, arguments string, userID *uuid.UUID, submitted time.Time) *Task {
	return &Task{
		ID:        uuid.New(),
		Name:      name,
		Submitted: submitted,
		Status:    TaskStatusWaiting,
		UserID:    userID,
		Arguments: arguments,
	}
}

// IsFresh は未着手（Waiting かつ started/finished 未設定）かどうかを返します
func (t *Task) IsFresh() bool {
	return t.Status == TaskStatusWaiting && t.Started == nil && t.Finished == nil
}

// MarkStarted は実行開始を記録します
func (t *Task) MarkStarted(now time.Time, pid int) {
	t.Status = ProgressStatus(0)
	t.Started = &now
	t.ProcessID = &pid
}

// Finish はタスクを終了状態に遷移させ、プロセスIDを解放します
// started が未設定の場合は finished と同時刻で補い、started <= finished を保ちます
func (t *Task) Finish(status TaskStatus, message string, now time.Time) {
	t.Status = status
	t.Message = message
	if t.Started == nil {
		t.Started = &now
	} else if now.Before(*t.Started) {
		now = *t.Started
	}
	t.Finished = &now
	t.ProcessID = nil
}
