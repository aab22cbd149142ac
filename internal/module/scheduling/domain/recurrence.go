package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Recurrence はスケジュールの繰り返し規則です
type Recurrence struct {
	expr  string
	sched cron.Schedule
}

// ParseRecurrence は繰り返し規則をパースします
// 5フィールドのcron式、@daily 等の記述子、@every、CRON_TZ= 接頭辞を受け付けます
func ParseRecurrence(expr string) (*Recurrence, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: recurrence is empty", ErrConfig)
	}

	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recurrence %q: %v", ErrConfig, expr, err)
	}

	return &Recurrence{expr: expr, sched: sched}, nil
}

// Next は anchor より厳密に後の次回実行時刻を返します
func (r *Recurrence) Next(anchor time.Time) time.Time {
	return r.sched.Next(anchor)
}

// String は元の式を返します
func (r *Recurrence) String() string {
	return r.expr
}
