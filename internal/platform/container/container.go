package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/runner"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/timer"
	"github.com/jinford/schedtask/internal/module/scheduling/application"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
	"github.com/jinford/schedtask/internal/platform/config"
	"github.com/jinford/schedtask/internal/platform/database"
)

// Container は1つのデータベースに対するユースケースと依存関係を保持します
type Container struct {
	Alias    string
	Logger   *slog.Logger
	Database *database.Database

	Tasks     *pg.TaskRepository
	Schedules *pg.ScheduleRepository
	Users     *pg.UserRepository

	Catalog   *runner.Catalog
	Runner    domain.StepRunner
	Executor  *application.Executor
	Scheduler *application.Scheduler
	Worker    *application.Worker
}

type containerOptions struct {
	logger   *slog.Logger
	envFile  string
	catalog  *runner.Catalog
	runner   domain.StepRunner
	launcher domain.WorkerLauncher
	timer    domain.Timer
}

// Option は Container 構築時のオプション
type Option func(*containerOptions)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) Option {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithEnvFile は再起動するプロセスに引き継ぐ .env のパスを指定する
func WithEnvFile(envFile string) Option {
	return func(opts *containerOptions) {
		opts.envFile = envFile
	}
}

// WithCatalog はステップカタログを差し替える
func WithCatalog(catalog *runner.Catalog) Option {
	return func(opts *containerOptions) {
		opts.catalog = catalog
	}
}

// WithStepRunner は StepRunner を差し替える
func WithStepRunner(r domain.StepRunner) Option {
	return func(opts *containerOptions) {
		opts.runner = r
	}
}

// WithLauncher は WorkerLauncher を差し替える
func WithLauncher(launcher domain.WorkerLauncher) Option {
	return func(opts *containerOptions) {
		opts.launcher = launcher
	}
}

// WithTimer は Timer を差し替える
func WithTimer(t domain.Timer) Option {
	return func(opts *containerOptions) {
		opts.timer = t
	}
}

// New は設定からデータベース識別子 alias 用のコンテナを生成する
func New(ctx context.Context, cfg *config.Config, alias string, opts ...Option) (*Container, error) {
	if alias == "" {
		alias = config.DefaultDatabase
	}
	dbCfg, err := cfg.Database(alias)
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, alias, database.ConnectionParams{
		Host:     dbCfg.Host,
		Port:     dbCfg.Port,
		User:     dbCfg.User,
		Password: dbCfg.Password,
		DBName:   dbCfg.DBName,
		SSLMode:  dbCfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	c, err := NewWithDB(cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB は既存の Database を受け取りコンテナを生成する
func NewWithDB(cfg *config.Config, db *database.Database, opts ...Option) (*Container, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	log := options.logger

	// Repository (PostgreSQL)
	queries := sqlc.New(db.Pool)
	tasks := pg.NewTaskRepository(queries)
	schedules := pg.NewScheduleRepository(queries)
	users := pg.NewUserRepository(queries)

	// Step catalog (YAML)
	catalog := options.catalog
	if catalog == nil {
		var err error
		catalog, err = runner.LoadCatalog(cfg.StepsFile)
		if err != nil {
			return nil, fmt.Errorf("ステップカタログの読み込みに失敗しました: %w", err)
		}
	}

	stepRunner := options.runner
	if stepRunner == nil {
		stepRunner = runner.NewTaskRunner(tasks, catalog, log)
	}

	launcher := options.launcher
	if launcher == nil {
		launcher = newLauncher(cfg, options.envFile, log)
	}

	wakeTimer := options.timer
	if wakeTimer == nil {
		var err error
		wakeTimer, err = timer.New(timer.Options{
			Backend:    cfg.Timer.Backend,
			Executable: cfg.Executable,
			EnvFile:    options.envFile,
			StateDir:   cfg.Timer.StateDir,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("タイマー初期化に失敗しました: %w", err)
		}
	}

	entryPoints := application.NewEntryPoints(cfg.EntryPoints...)

	executor := application.NewExecutor(application.ExecutorDeps{
		Schedules:   schedules,
		Tasks:       tasks,
		Users:       users,
		Runner:      stepRunner,
		Catalog:     catalog,
		EntryPoints: entryPoints,
	}, log)

	scheduler := application.NewScheduler(
		application.NewHarvester(database.NewTransactionProvider(db.Pool), launcher, log),
		application.NewRearmer(schedules, wakeTimer, log),
	)

	worker := application.NewWorker(tasks, executor, stepRunner, entryPoints, log).
		WithLock(database.NewWorkerLock(db.Pool, log))

	return &Container{
		Alias:     db.Alias,
		Logger:    log,
		Database:  db,
		Tasks:     tasks,
		Schedules: schedules,
		Users:     users,
		Catalog:   catalog,
		Runner:    stepRunner,
		Executor:  executor,
		Scheduler: scheduler,
		Worker:    worker,
	}, nil
}

func newLauncher(cfg *config.Config, envFile string, log *slog.Logger) domain.WorkerLauncher {
	if cfg.Worker.Launch == config.WorkerLaunchNone {
		return runner.NewNoopLauncher(log)
	}
	return runner.NewProcessLauncher(cfg.Executable, envFile, log)
}

// Close はコンテナが保持するリソースを解放する
func (c *Container) Close() {
	if c.Database != nil {
		c.Database.Close()
	}
}
