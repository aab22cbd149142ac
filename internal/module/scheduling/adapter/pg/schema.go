package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate は埋め込みスキーマをファイル名順に適用します
// 各ファイルは IF NOT EXISTS で記述されているため再適用しても安全です
func Migrate(ctx context.Context, db sqlc.DBTX) ([]string, error) {
	names, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		ddl, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(ddl)); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}

	return names, nil
}
