package container_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/runner"
	testutil "github.com/jinford/schedtask/internal/module/scheduling/testing"
	"github.com/jinford/schedtask/internal/platform/config"
	"github.com/jinford/schedtask/internal/platform/container"
	"github.com/jinford/schedtask/internal/platform/database"
)

func testConfig() *config.Config {
	return &config.Config{
		Databases:   map[string]config.DatabaseConfig{config.DefaultDatabase: {}},
		Timer:       config.TimerConfig{Backend: config.TimerNone},
		Worker:      config.WorkerConfig{Launch: config.WorkerLaunchNone},
		Executable:  "schedtask",
		EntryPoints: []string{"schedule", "scheduletasks"},
	}
}

// lazyPool は接続せずにプールを作成します（コンテナの組み立てのみを検証）
func lazyPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("postgres://schedtask@localhost:5432/schedtask?sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.NewWithConfig(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestNewWithDB_WiresUseCases(t *testing.T) {
	// Setup
	db := &database.Database{Alias: "default", Pool: lazyPool(t)}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	// Execute
	c, err := container.NewWithDB(testConfig(), db,
		container.WithLogger(logger),
		container.WithCatalog(runner.NewCatalog()),
		container.WithTimer(&testutil.MockTimer{}),
	)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "default", c.Alias)
	assert.NotNil(t, c.Executor)
	assert.NotNil(t, c.Scheduler)
	assert.NotNil(t, c.Worker)
	assert.IsType(t, &runner.TaskRunner{}, c.Runner)
}

func TestNewWithDB_MissingStepsFile(t *testing.T) {
	cfg := testConfig()
	cfg.StepsFile = "/nonexistent/steps.yaml"

	_, err := container.NewWithDB(cfg, &database.Database{Alias: "default", Pool: lazyPool(t)})

	require.Error(t, err)
}

func TestNew_UnknownDatabase(t *testing.T) {
	_, err := container.New(t.Context(), testConfig(), "scenario9")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario9")
}
