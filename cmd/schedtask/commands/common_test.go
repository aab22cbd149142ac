package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr bool
	}{
		{name: "未指定", input: "", wantNil: true},
		{name: "UUID", input: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{name: "数値IDは不正", input: "42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseTaskID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.input)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, id)
				return
			}
			require.NotNil(t, id)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestResolveEnvFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(existing, []byte("SCHEDTASK_TIMER=none\n"), 0o600))

	assert.Equal(t, existing, resolveEnvFile(existing))
	assert.Equal(t, "", resolveEnvFile(filepath.Join(dir, "missing.env")))
	assert.Equal(t, "", resolveEnvFile(""))
}

func TestFormatTime(t *testing.T) {
	at := time.Date(2024, 6, 2, 2, 0, 0, 0, time.Local)

	assert.Equal(t, "-", formatTime(nil))
	assert.Equal(t, "2024-06-02 02:00:00", formatTime(&at))
}

func TestRenderSchedulesTable(t *testing.T) {
	next := time.Date(2024, 6, 2, 2, 0, 0, 0, time.Local)
	schedules := []*domain.Schedule{
		{Name: "nightly", Recurrence: "0 2 * * *", NextRun: &next, Steps: []domain.Step{{Name: "importA"}, {Name: "runplan"}}},
		{Name: "manual"},
	}

	var buf bytes.Buffer
	renderSchedulesTable(&buf, schedules)

	out := buf.String()
	assert.Contains(t, out, "nightly")
	assert.Contains(t, out, "0 2 * * *")
	assert.Contains(t, out, "2024-06-02 02:00:00")
	assert.Contains(t, out, "manual")
}

func TestRenderStepsTable(t *testing.T) {
	var buf bytes.Buffer
	renderStepsTable(&buf, []domain.Step{
		{Name: "importA", Arguments: "--source=a"},
		{Name: "runplan", AbortOnFailure: true},
	})

	out := buf.String()
	assert.Contains(t, out, "importA")
	assert.Contains(t, out, "--source=a")
	assert.Contains(t, out, "true")
}
