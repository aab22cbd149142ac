package pg

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// UUIDToPgtype converts uuid.UUID to pgtype.UUID
func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// UUIDPtrToPgtype converts *uuid.UUID to pgtype.UUID
func UUIDPtrToPgtype(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// PgtypeToUUID converts pgtype.UUID to uuid.UUID
func PgtypeToUUID(id pgtype.UUID) uuid.UUID {
	return id.Bytes
}

// PgtypeToUUIDPtr converts pgtype.UUID to *uuid.UUID
func PgtypeToUUIDPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := uuid.UUID(id.Bytes)
	return &v
}

// TimeToPgtype converts time.Time to pgtype.Timestamptz
func TimeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// TimePtrToPgtype converts *time.Time to pgtype.Timestamptz
func TimePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// PgtypeToTimePtr converts pgtype.Timestamptz to *time.Time
func PgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// IntPtrToPgtype converts *int to pgtype.Int4
func IntPtrToPgtype(i *int) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}
}

// PgtypeToIntPtr converts pgtype.Int4 to *int
func PgtypeToIntPtr(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

func convertSQLCTask(t sqlc.Task) *domain.Task {
	return &domain.Task{
		ID:        PgtypeToUUID(t.ID),
		Name:      t.Name,
		Submitted: t.Submitted.Time,
		Started:   PgtypeToTimePtr(t.Started),
		Finished:  PgtypeToTimePtr(t.Finished),
		Status:    domain.TaskStatus(t.Status),
		Message:   t.Message,
		UserID:    PgtypeToUUIDPtr(t.UserID),
		ProcessID: PgtypeToIntPtr(t.Processid),
		Arguments: t.Arguments,
	}
}

// steps 列は [{"name": ..., "arguments": ..., "abort_on_failure": ...}] 形式の JSONB です
func convertSQLCSchedule(s sqlc.ScheduledTask) (*domain.Schedule, error) {
	steps := []domain.Step{}
	if len(s.Steps) > 0 {
		if err := json.Unmarshal(s.Steps, &steps); err != nil {
			return nil, fmt.Errorf("failed to decode steps of schedule %q: %w", s.Name, err)
		}
	}

	return &domain.Schedule{
		Name:       s.Name,
		Steps:      steps,
		Recurrence: s.Recurrence,
		UserID:     PgtypeToUUIDPtr(s.UserID),
		NextRun:    PgtypeToTimePtr(s.NextRun),
	}, nil
}

func encodeSteps(steps []domain.Step) ([]byte, error) {
	if steps == nil {
		steps = []domain.Step{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}
	return data, nil
}
