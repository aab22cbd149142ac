package runner

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// Request はハンドラーに渡される実行要求です
type Request struct {
	Database string
	Task     *domain.Task
}

// Handler は1ステップ分の処理を実行します
// 返したエラーの文言がタスクのメッセージとして記録されます
type Handler interface {
	Run(ctx context.Context, req Request) error
}

// HandlerFunc は関数を Handler として扱うためのアダプターです
type HandlerFunc func(ctx context.Context, req Request) error

func (f HandlerFunc) Run(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Catalog はステップ名とハンドラーの対応表です
type Catalog struct {
	handlers map[string]Handler
}

// NewCatalog は空のカタログを作成します
func NewCatalog() *Catalog {
	return &Catalog{handlers: map[string]Handler{}}
}

// Register はステップ名にハンドラーを登録します（同名は上書き）
func (c *Catalog) Register(name string, h Handler) {
	c.handlers[name] = h
}

// Lookup はステップ名に対応するハンドラーを返します
func (c *Catalog) Lookup(name string) (Handler, bool) {
	h, ok := c.handlers[name]
	return h, ok
}

// Names は登録済みステップ名を昇順で返します
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ domain.StepCatalog = (*Catalog)(nil)

// Validate は未登録のステップ名をまとめて ErrConfig として返します
func (c *Catalog) Validate(names []string) error {
	var unknown []string
	seen := map[string]bool{}
	for _, name := range names {
		if _, ok := c.handlers[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown steps: %s: %w", strings.Join(unknown, ", "), domain.ErrConfig)
	}
	return nil
}

// catalogFile はステップカタログ YAML の構造です
//
//	steps:
//	  importA:
//	    command: ["/opt/etl/import", "--source=a"]
//	    append_arguments: true
//	    env: {MODE: full}
//	    timeout: 30m
type catalogFile struct {
	Steps map[string]stepSpec `yaml:"steps"`
}

type stepSpec struct {
	Command         []string          `yaml:"command"`
	AppendArguments bool              `yaml:"append_arguments"`
	Env             map[string]string `yaml:"env"`
	Dir             string            `yaml:"dir"`
	Timeout         time.Duration     `yaml:"timeout"`
}

// LoadCatalog はステップカタログ YAML を読み込みます
// path が空の場合は空のカタログを返します
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step catalog %s: %w", path, err)
	}

	return ParseCatalog(data)
}

// ParseCatalog は YAML からカタログを組み立て、各ステップを ExecHandler として登録します
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse step catalog: %w: %w", err, domain.ErrConfig)
	}

	catalog := NewCatalog()
	for name, spec := range file.Steps {
		if len(spec.Command) == 0 || spec.Command[0] == "" {
			return nil, fmt.Errorf("step %q has no command: %w", name, domain.ErrConfig)
		}
		catalog.Register(name, &ExecHandler{
			Command:         spec.Command,
			AppendArguments: spec.AppendArguments,
			Env:             spec.Env,
			Dir:             spec.Dir,
			Timeout:         spec.Timeout,
		})
	}

	return catalog, nil
}
