package kernel

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/smilemakc/cellgraph/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// rePlaceholder matches a SQL cell's {name} template variables. Kept in
// sync with internal/extractor's ExtractSQL so reads() and execution agree
// on what counts as a placeholder.
var rePlaceholder = regexp.MustCompile(`\{([A-Za-z_]\w*)\}`)

// SQLEngine runs SQL cells against one configured Postgres connection for
// the lifetime of a kernel. set_db_config (spec §4.3.1) replaces the
// connection; a kernel with no configured engine fails every SQL cell with
// a clear error rather than a nil-pointer panic.
//
// Grounded on the teacher's internal/infrastructure/storage/db.go
// (pgdriver.NewConnector + bun.NewDB + pool tuning); the
// registerModels/bundebug pieces have no equivalent here since SQL cells
// are unstructured ad-hoc queries, not a fixed model set.
type SQLEngine struct {
	db *bun.DB
}

// Configure opens a new Postgres connection, replacing any previous one.
func Configure(ctx context.Context, dsn string) (*SQLEngine, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(30*time.Second),
		pgdriver.WithDialTimeout(10*time.Second),
		pgdriver.WithReadTimeout(10*time.Second),
		pgdriver.WithWriteTimeout(10*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(10)
	sqldb.SetMaxIdleConns(2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("sqlengine: ping: %w", err)
	}
	return &SQLEngine{db: db}, nil
}

// Close releases the underlying connection pool.
func (e *SQLEngine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Run executes a SQL cell's source against ns for placeholder bindings,
// per spec §4.3.4's SQL cell semantics: find each {name} placeholder, look
// it up in the namespace (MissingVariableError if absent), substitute
// driver-specific positional parameters (never string-concatenate), and
// convert the result to the uniform table envelope.
func (e *SQLEngine) Run(ctx context.Context, cellID, source string, ns *Namespace) (domain.TablePayload, error) {
	if e == nil || e.db == nil {
		return domain.TablePayload{}, fmt.Errorf("sqlengine: no database configured")
	}

	query, args, err := bindPlaceholders(cellID, source, ns)
	if err != nil {
		return domain.TablePayload{}, err
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.TablePayload{}, fmt.Errorf("sqlengine: query: %w", err)
	}
	defer rows.Close()

	return rowsToTable(rows)
}

// bindPlaceholders rewrites {name} occurrences into the dialect's
// positional placeholders ($1, $2, ...) and collects the bound values in
// order, deduplicating repeated names to a single parameter per spec §8's
// "multiple/duplicate placeholders" case.
func bindPlaceholders(cellID, source string, ns *Namespace) (string, []any, error) {
	var args []any
	seen := map[string]int{} // name -> 1-based positional index

	rewritten := rePlaceholder.ReplaceAllStringFunc(source, func(match string) string {
		name := rePlaceholder.FindStringSubmatch(match)[1]
		if idx, ok := seen[name]; ok {
			return fmt.Sprintf("$%d", idx)
		}
		args = append(args, nil) // placeholder, filled below once value is known
		idx := len(args)
		seen[name] = idx
		return fmt.Sprintf("$%d", idx)
	})

	for name, idx := range seen {
		value, ok := ns.Get(name)
		if !ok {
			return "", nil, &domain.MissingVariableError{CellID: cellID, Variable: name}
		}
		args[idx-1] = value
	}
	return rewritten, args, nil
}

// rowsToTable converts a *sql.Rows result into the {type, columns, rows}
// envelope shared with MIME tabular-frame conversion, ISO-serializing
// temporal values per spec §4.3.4 step 3.
func rowsToTable(rows *sql.Rows) (domain.TablePayload, error) {
	columns, err := rows.Columns()
	if err != nil {
		return domain.TablePayload{}, fmt.Errorf("sqlengine: columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.TablePayload{}, fmt.Errorf("sqlengine: scan: %w", err)
		}
		row := make([]any, len(columns))
		for i, v := range raw {
			row[i] = normalizeCell(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return domain.TablePayload{}, fmt.Errorf("sqlengine: rows: %w", err)
	}
	return domain.NewTablePayload(columns, out), nil
}

// normalizeCell ISO-serializes temporal values; everything else passes
// through unchanged for msgpack/JSON encoding downstream.
func normalizeCell(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return v
}
