package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step はスケジュールを構成する1ステップの記述子です
type Step struct {
	Name           string `json:"name"`
	Arguments      string `json:"arguments,omitempty"`
	AbortOnFailure bool   `json:"abort_on_failure,omitempty"`
}

// Schedule は名前付きの定期実行スケジュール（順序付きステップ列）を表します
type Schedule struct {
	Name       string     `json:"name"`
	Steps      []Step     `json:"steps"`
	Recurrence string     `json:"recurrence"`
	UserID     *uuid.UUID `json:"userID,omitempty"`
	NextRun    *time.Time `json:"nextRun,omitempty"`
}

// IsDue は now 時点で実行期限に達しているかを返します
func (s *Schedule) IsDue(now time.Time) bool {
	return s.NextRun != nil && !s.NextRun.After(now)
}

// StepNames はステップ名を定義順に返します
func (s *Schedule) StepNames() []string {
	names := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		names = append(names, step.Name)
	}
	return names
}

// ComputeNextRun は anchor を基準に次回実行時刻を再計算します
// 繰り返し定義が空の場合は NextRun をクリアし、自動起動の対象から外します
func (s *Schedule) ComputeNextRun(anchor time.Time) error {
	if s.Recurrence == "" {
		s.NextRun = nil
		return nil
	}

	rec, err := ParseRecurrence(s.Recurrence)
	if err != nil {
		return err
	}

	next := rec.Next(anchor)
	if next.IsZero() {
		s.NextRun = nil
		return nil
	}
	s.NextRun = &next
	return nil
}
