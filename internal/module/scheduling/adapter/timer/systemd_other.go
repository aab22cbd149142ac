//go:build !linux

package timer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// ErrUnsupported は systemd バックエンドが利用できない OS で返されます
var ErrUnsupported = errors.New("systemd timer: unsupported OS (linux only)")

// Systemd は linux 以外では常に ErrUnsupported を返します
type Systemd struct {
	log *slog.Logger
}

func NewSystemd(log *slog.Logger) *Systemd {
	return &Systemd{log: log}
}

var _ domain.Timer = (*Systemd)(nil)

func (s *Systemd) Arm(ctx context.Context, database string, at time.Time) error {
	return ErrUnsupported
}
