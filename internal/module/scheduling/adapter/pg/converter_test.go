package pg

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

func TestConvertSQLCTask_NullableColumns(t *testing.T) {
	id := uuid.New()
	submitted := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	task := convertSQLCTask(sqlc.Task{
		ID:        UUIDToPgtype(id),
		Name:      "schedule",
		Submitted: TimeToPgtype(submitted),
		Status:    "Waiting",
		Arguments: "nightly",
	})

	assert.Equal(t, id, task.ID)
	assert.Equal(t, submitted, task.Submitted)
	assert.Equal(t, domain.TaskStatusWaiting, task.Status)
	assert.Nil(t, task.Started)
	assert.Nil(t, task.Finished)
	assert.Nil(t, task.UserID)
	assert.Nil(t, task.ProcessID)
	assert.True(t, task.IsFresh())
}

func TestConvertSQLCTask_OwnedTask(t *testing.T) {
	userID := uuid.New()
	started := time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC)

	task := convertSQLCTask(sqlc.Task{
		ID:        UUIDToPgtype(uuid.New()),
		Name:      "importA",
		Submitted: TimeToPgtype(started),
		Started:   TimeToPgtype(started),
		Status:    "0%",
		UserID:    UUIDToPgtype(userID),
		Processid: pgtype.Int4{Int32: 4242, Valid: true},
	})

	require.NotNil(t, task.UserID)
	assert.Equal(t, userID, *task.UserID)
	require.NotNil(t, task.ProcessID)
	assert.Equal(t, 4242, *task.ProcessID)
	require.NotNil(t, task.Started)
	assert.False(t, task.IsFresh())
}

func TestConvertSQLCSchedule(t *testing.T) {
	tests := []struct {
		name    string
		steps   []byte
		want    []domain.Step
		wantErr bool
	}{
		{
			name:  "ステップあり",
			steps: []byte(`[{"name":"importA","arguments":"--source=a"},{"name":"runplan","abort_on_failure":true}]`),
			want: []domain.Step{
				{Name: "importA", Arguments: "--source=a"},
				{Name: "runplan", AbortOnFailure: true},
			},
		},
		{name: "空配列", steps: []byte(`[]`), want: []domain.Step{}},
		{name: "NULL相当", steps: nil, want: []domain.Step{}},
		{name: "壊れたJSON", steps: []byte(`{`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := convertSQLCSchedule(sqlc.ScheduledTask{Name: "nightly", Steps: tt.steps, Recurrence: "0 2 * * *"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "nightly")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Steps)
			assert.Nil(t, s.NextRun)
			assert.Nil(t, s.UserID)
		})
	}
}

func TestEncodeSteps_NilIsEmptyArray(t *testing.T) {
	data, err := encodeSteps(nil)

	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}
