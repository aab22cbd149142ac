package timer

import (
	"time"

	"github.com/coreos/go-systemd/v22/unit"
)

// SystemdUnitNames はデータベースごとのタイマーユニットと起動先サービスユニットの名前を返します
// サービスはテンプレート schedtask@.service のインスタンスとして起動されます
func SystemdUnitNames(database string) (timerUnit, serviceUnit string) {
	instance := unit.UnitNameEscape(database)
	return "schedtask-" + instance + ".timer", "schedtask@" + instance + ".service"
}

// OnCalendarSpec は OnCalendar= に渡す UTC の絶対時刻表現を返します
func OnCalendarSpec(at time.Time) string {
	return at.UTC().Format("2006-01-02 15:04:05") + " UTC"
}
