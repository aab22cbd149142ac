//go:build linux

package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// Systemd は D-Bus 経由で一時的な systemd タイマーを登録します
type Systemd struct {
	connect func(ctx context.Context) (*dbus.Conn, error)
	log     *slog.Logger
}

// NewSystemd は新しいSystemdタイマーを作成します
func NewSystemd(log *slog.Logger) *Systemd {
	return &Systemd{
		connect: dbus.NewSystemConnectionContext,
		log:     log,
	}
}

var _ domain.Timer = (*Systemd)(nil)

// Arm は既存のタイマーを停止してから、新しい一時タイマーを開始します
func (s *Systemd) Arm(ctx context.Context, database string, at time.Time) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	timerUnit, serviceUnit := SystemdUnitNames(database)

	// 未登録のタイマーは停止に失敗するが問題ない
	stopped := make(chan string, 1)
	if _, err := conn.StopUnitContext(ctx, timerUnit, "replace", stopped); err != nil {
		s.log.Debug("Previous timer not stopped", "unit", timerUnit, "error", err)
	} else if err := waitJob(ctx, stopped); err != nil {
		s.log.Debug("Previous timer stop job did not complete", "unit", timerUnit, "error", err)
	}
	_ = conn.ResetFailedUnitContext(ctx, timerUnit)

	started := make(chan string, 1)
	if _, err := conn.StartTransientUnitContext(ctx, timerUnit, "replace", timerProperties(database, serviceUnit, at), started); err != nil {
		return fmt.Errorf("failed to start transient timer %s: %w", timerUnit, err)
	}
	if err := waitJob(ctx, started); err != nil {
		return fmt.Errorf("transient timer %s: %w", timerUnit, err)
	}

	s.log.Debug("systemd timer started", "unit", timerUnit, "service", serviceUnit, "onCalendar", OnCalendarSpec(at))
	return nil
}

// calendarTimer は TimersCalendar プロパティ a(ss) の要素です
type calendarTimer struct {
	Base string
	Spec string
}

func timerProperties(database, serviceUnit string, at time.Time) []dbus.Property {
	return []dbus.Property{
		dbus.PropDescription("schedtask wake-up for database " + database),
		{Name: "Unit", Value: godbus.MakeVariant(serviceUnit)},
		{Name: "TimersCalendar", Value: godbus.MakeVariant([]calendarTimer{{Base: "OnCalendar", Spec: OnCalendarSpec(at)}})},
		{Name: "AccuracyUSec", Value: godbus.MakeVariant(uint64(time.Second / time.Microsecond))},
		{Name: "RemainAfterElapse", Value: godbus.MakeVariant(false)},
	}
}

func waitJob(ctx context.Context, ch <-chan string) error {
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("job finished with result %q", result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
