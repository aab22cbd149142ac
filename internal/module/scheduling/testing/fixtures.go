package testing

import (
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// TestSchedule はテスト用のScheduleを生成します
func TestSchedule(name string, nextRun *time.Time, steps ...domain.Step) *domain.Schedule {
	return &domain.Schedule{
		Name:       name,
		Steps:      steps,
		Recurrence: "0 2 * * *",
		NextRun:    nextRun,
	}
}

// TestStep はテスト用のStepを生成します
func TestStep(name string, abortOnFailure bool) domain.Step {
	return domain.Step{Name: name, AbortOnFailure: abortOnFailure}
}

// TimePtr は時刻のポインタを返します
func TimePtr(t time.Time) *time.Time {
	return &t
}

// FixedClock は常に同じ時刻を返す時計です
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
