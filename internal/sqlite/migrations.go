package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir   = "migrations"
	migrationsTable = "schema_migrations"

	// normalizeMigration rewrites stored timestamps into timeLayout. It is
	// idempotent and also runs after a rebuild reinserts legacy rows.
	normalizeMigration = "migrations/000006_normalize_timestamps.up.sql"
)

// migrateLogger routes golang-migrate output to logrus at debug level.
type migrateLogger struct {
	log *logrus.Entry
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}

type migrationResult struct {
	version uint
	applied int
	rebuilt bool
}

// migrator brings one engine's schema to the latest version.
type migrator struct {
	db      *sql.DB
	source  fs.FS
	log     *logrus.Entry
	metrics *metrics.Recorder
}

// run applies pending migrations. A legacy database that has tables but no
// version table is first stamped with the version its columns match. When a
// migration fails, every row is exported, the schema is recreated from the
// embedded migrations, and the rows are reinserted column by column.
func (m *migrator) run(ctx context.Context) (migrationResult, error) {
	baseline, err := m.detectBaseline(ctx)
	if err != nil {
		return migrationResult{}, err
	}

	version, applied, err := m.up(m.source, baseline)
	if err == nil {
		m.metrics.MigrationsApplied(applied, version)
		return migrationResult{version: version, applied: applied}, nil
	}

	m.log.WithError(err).Warn("migration failed, rebuilding schema")
	version, err = m.rebuild(ctx)
	if err != nil {
		return migrationResult{}, err
	}
	m.metrics.Rebuilt()
	m.metrics.MigrationsApplied(0, version)
	return migrationResult{version: version, rebuilt: true}, nil
}

// detectBaseline returns the version a legacy database already satisfies, or
// 0 when the database is empty or already tracked.
func (m *migrator) detectBaseline(ctx context.Context) (uint, error) {
	tracked, err := tableExists(ctx, m.db, migrationsTable)
	if err != nil || tracked {
		return 0, err
	}
	legacy, err := tableExists(ctx, m.db, tableUsers)
	if err != nil || !legacy {
		return 0, err
	}

	baseline := uint(1)
	template, err := hasColumn(ctx, m.db, tableLists, "is_template")
	if err != nil {
		return 0, err
	}
	if template {
		baseline = 2
		quantity, err := hasColumn(ctx, m.db, tableListItems, "quantity")
		if err != nil {
			return 0, err
		}
		if quantity {
			baseline = 3
		}
	}
	m.log.WithField("baseline", baseline).Info("stamping legacy schema")
	return baseline, nil
}

// up runs every pending migration from src and returns the resulting version
// and how many migrations ran. A non-zero baseline is forced first.
func (m *migrator) up(src fs.FS, baseline uint) (uint, int, error) {
	source, err := iofs.New(src, migrationsDir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading migrations: %w", err)
	}
	defer source.Close()

	driver, err := sqlitemigrate.WithInstance(m.db, &sqlitemigrate.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("preparing migration driver: %w", err)
	}

	// Not closed: Close on the migrate instance would close m.db.
	mg, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing migrations: %w", err)
	}
	mg.Log = migrateLogger{log: m.log}

	if baseline > 0 {
		if err := mg.Force(int(baseline)); err != nil {
			return 0, 0, fmt.Errorf("forcing baseline %d: %w", baseline, err)
		}
	}

	before, err := currentVersion(mg)
	if err != nil {
		return 0, 0, err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, 0, fmt.Errorf("applying migrations: %w", err)
	}
	after, err := currentVersion(mg)
	if err != nil {
		return 0, 0, err
	}
	return after, int(after - before), nil
}

func currentVersion(mg *migrate.Migrate) (uint, error) {
	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

type tableRows struct {
	columns []string
	rows    [][]any
}

// rebuild recreates the schema from the embedded migrations and carries every
// existing row over. Columns the new schema lacks are dropped and columns the
// old rows lack take their defaults.
func (m *migrator) rebuild(ctx context.Context) (uint, error) {
	saved := make(map[string]tableRows, len(dataTables))
	for _, table := range dataTables {
		exists, err := tableExists(ctx, m.db, table)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrSchemaRebuild, err)
		}
		if !exists {
			continue
		}
		data, err := exportTable(ctx, m.db, table)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrSchemaRebuild, err)
		}
		saved[table] = data
	}

	drop := append([]string{migrationsTable}, dataTables...)
	for i := len(drop) - 1; i >= 0; i-- {
		if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+drop[i]); err != nil {
			return 0, fmt.Errorf("%w: dropping %s: %v", types.ErrSchemaRebuild, drop[i], err)
		}
	}

	version, _, err := m.up(migrationsFS, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrSchemaRebuild, err)
	}

	if err := reinsert(ctx, m.db, saved); err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrSchemaRebuild, err)
	}

	counts := logrus.Fields{"schema_version": version}
	for table, data := range saved {
		counts[table] = len(data.rows)
	}
	m.log.WithFields(counts).Warn("schema rebuilt")
	return version, nil
}

func exportTable(ctx context.Context, q querier, table string) (tableRows, error) {
	rows, err := q.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return tableRows{}, fmt.Errorf("exporting %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return tableRows{}, fmt.Errorf("exporting %s: %w", table, err)
	}

	data := tableRows{columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return tableRows{}, fmt.Errorf("exporting %s: %w", table, err)
		}
		// DATETIME columns come back as time.Time; store them as text in
		// timeLayout, never in time.Time.String form.
		for i, v := range values {
			if ts, ok := v.(time.Time); ok {
				values[i] = formatTime(ts)
			}
		}
		data.rows = append(data.rows, values)
	}
	if err := rows.Err(); err != nil {
		return tableRows{}, fmt.Errorf("exporting %s: %w", table, err)
	}
	return data, nil
}

// reinsert writes saved rows into the current schema in one transaction.
func reinsert(ctx context.Context, db *sql.DB, saved map[string]tableRows) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range dataTables {
		data, ok := saved[table]
		if !ok || len(data.rows) == 0 {
			continue
		}
		current, err := tableColumns(ctx, tx, table)
		if err != nil {
			return err
		}
		keep := make(map[string]bool, len(current))
		for _, c := range current {
			keep[c] = true
		}

		var cols []string
		var idx []int
		for i, c := range data.columns {
			if keep[c] {
				cols = append(cols, c)
				idx = append(idx, i)
			}
		}
		if len(cols) == 0 {
			continue
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing insert for %s: %w", table, err)
		}
		for _, row := range data.rows {
			args := make([]any, len(idx))
			for j, i := range idx {
				args[j] = row[i]
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				stmt.Close()
				return fmt.Errorf("reinserting into %s: %w", table, err)
			}
		}
		stmt.Close()
	}

	normalize, err := fs.ReadFile(migrationsFS, normalizeMigration)
	if err != nil {
		return fmt.Errorf("reading %s: %w", normalizeMigration, err)
	}
	if _, err := tx.ExecContext(ctx, string(normalize)); err != nil {
		return fmt.Errorf("normalizing timestamps: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
