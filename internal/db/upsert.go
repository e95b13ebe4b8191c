package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// MergeConfig names the target of Merge. Non-key columns are overwritten on
// conflict; when every column is a key, conflicting rows are left alone.
type MergeConfig struct {
	Schema  string
	Table   string
	Columns []string
	Keys    []string
}

func (c MergeConfig) target() pgx.Identifier {
	if c.Schema == "" {
		return pgx.Identifier{c.Table}
	}
	return pgx.Identifier{c.Schema, c.Table}
}

func (c MergeConfig) staging() pgx.Identifier {
	return pgx.Identifier{"_merge_" + strings.Join(c.target(), "_")}
}

// Merge stages rows in a temp table dropped at commit and folds them into the
// target with INSERT ... ON CONFLICT. conn must be inside a transaction.
func Merge(ctx context.Context, conn Conn, cfg MergeConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 || len(cfg.Keys) == 0 {
		return 0, eris.Errorf("db: merge %s: columns and keys are required", cfg.Table)
	}

	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		cfg.staging().Sanitize(), cfg.target().Sanitize())
	if _, err := conn.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: create staging table", cfg.Table)
	}

	if _, err := conn.CopyFrom(ctx, cfg.staging(), cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: stage rows", cfg.Table)
	}

	tag, err := conn.Exec(ctx, mergeSQL(cfg))
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s: insert on conflict", cfg.Table)
	}
	return tag.RowsAffected(), nil
}

func mergeSQL(cfg MergeConfig) string {
	isKey := make(map[string]bool, len(cfg.Keys))
	for _, k := range cfg.Keys {
		isKey[k] = true
	}

	var set []string
	for _, c := range cfg.Columns {
		if !isKey[c] {
			col := pgx.Identifier{c}.Sanitize()
			set = append(set, col+" = EXCLUDED."+col)
		}
	}

	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}

	cols := identList(cfg.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		cfg.target().Sanitize(), cols, cols, cfg.staging().Sanitize(), identList(cfg.Keys), action)
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
