package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// DefaultDatabase は常に存在するデータベース識別子です
const DefaultDatabase = "default"

// タイマーバックエンド
const (
	TimerAt       = "at"
	TimerSchtasks = "schtasks"
	TimerSystemd  = "systemd"
	TimerNone     = "none"
)

// ワーカー起動方式
const (
	WorkerLaunchProcess = "process"
	WorkerLaunchNone    = "none"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// データベース識別子ごとの接続設定
	Databases map[string]DatabaseConfig

	Timer  TimerConfig
	Worker WorkerConfig
	Log    LogConfig

	// タイマーやワーカー起動で再実行するバイナリ
	Executable string

	// ステップカタログ（YAML）のパス
	StepsFile string

	// 実行エントリポイントとして受け付けるタスク名
	EntryPoints []string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TimerConfig は外部ワンショットタイマーの設定
type TimerConfig struct {
	Backend  string // "at", "schtasks", "systemd" or "none"
	StateDir string // at バックエンドがジョブIDを記録するディレクトリ
}

// WorkerConfig はワーカー起動の設定
type WorkerConfig struct {
	Launch string // "process" or "none"
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string
	Format string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	base := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "schedtask"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "schedtask"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	databases, err := loadDatabases(base)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Databases: databases,
		Timer: TimerConfig{
			Backend:  strings.ToLower(getEnv("SCHEDTASK_TIMER", TimerAt)),
			StateDir: getEnv("SCHEDTASK_TIMER_STATE_DIR", defaultStateDir()),
		},
		Worker: WorkerConfig{
			Launch: strings.ToLower(getEnv("SCHEDTASK_WORKER_LAUNCH", WorkerLaunchProcess)),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Executable:  getEnv("SCHEDTASK_EXECUTABLE", defaultExecutable()),
		StepsFile:   getEnv("SCHEDTASK_STEPS_FILE", ""),
		EntryPoints: getEnvAsList("SCHEDTASK_RUN_ENTRY_POINTS", []string{"schedule", "scheduletasks"}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Database はデータベース識別子から接続設定を解決します
// 空文字は default として扱い、未知の識別子は ErrConfig を返します
func (c *Config) Database(alias string) (DatabaseConfig, error) {
	if alias == "" {
		alias = DefaultDatabase
	}
	db, ok := c.Databases[alias]
	if !ok {
		return DatabaseConfig{}, fmt.Errorf("unknown database %q: %w", alias, domain.ErrConfig)
	}
	return db, nil
}

// DatabaseAliases は default を先頭にしたデータベース識別子を返します
func (c *Config) DatabaseAliases() []string {
	aliases := make([]string, 0, len(c.Databases))
	for alias := range c.Databases {
		if alias != DefaultDatabase {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return append([]string{DefaultDatabase}, aliases...)
}

func (c *Config) validate() error {
	switch c.Timer.Backend {
	case TimerAt, TimerSchtasks, TimerSystemd, TimerNone:
	default:
		return fmt.Errorf("unsupported SCHEDTASK_TIMER %q: %w", c.Timer.Backend, domain.ErrConfig)
	}

	switch c.Worker.Launch {
	case WorkerLaunchProcess, WorkerLaunchNone:
	default:
		return fmt.Errorf("unsupported SCHEDTASK_WORKER_LAUNCH %q: %w", c.Worker.Launch, domain.ErrConfig)
	}

	if len(c.EntryPoints) == 0 {
		return fmt.Errorf("SCHEDTASK_RUN_ENTRY_POINTS is empty: %w", domain.ErrConfig)
	}
	return nil
}

// loadDatabases は SCHEDTASK_DATABASES に列挙された識別子ごとの接続設定を組み立てます
// 識別子 x の設定は DB_X_* から読み、未設定の項目は default の値を引き継ぎます
func loadDatabases(base DatabaseConfig) (map[string]DatabaseConfig, error) {
	databases := map[string]DatabaseConfig{DefaultDatabase: base}

	for _, alias := range getEnvAsList("SCHEDTASK_DATABASES", nil) {
		if alias == DefaultDatabase {
			continue
		}
		prefix := "DB_" + strings.ToUpper(strings.ReplaceAll(alias, "-", "_")) + "_"

		name := os.Getenv(prefix + "NAME")
		if name == "" {
			return nil, fmt.Errorf("%sNAME is required for database %q: %w", prefix, alias, domain.ErrConfig)
		}

		databases[alias] = DatabaseConfig{
			Host:     getEnv(prefix+"HOST", base.Host),
			Port:     getEnvAsInt(prefix+"PORT", base.Port),
			User:     getEnv(prefix+"USER", base.User),
			Password: getEnv(prefix+"PASSWORD", base.Password),
			DBName:   name,
			SSLMode:  getEnv(prefix+"SSLMODE", base.SSLMode),
		}
	}

	return databases, nil
}

func defaultExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return "schedtask"
	}
	return exe
}

func defaultStateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "schedtask"
	}
	return os.TempDir()
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数を空要素を除いて取得します
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
