package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

const migrationsTable = "schema_migrations"

// Migration is one embedded .up.sql file. Statements are separated by ';'
// and run in order; PL/SQL blocks are not supported.
type Migration struct {
	Version    string
	Statements []string
}

// LoadMigrations returns the embedded migrations sorted by version.
func LoadMigrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		migrations = append(migrations, Migration{
			Version:    strings.TrimSuffix(name, ".up.sql"),
			Statements: SplitStatements(string(content)),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// SplitStatements drops "--" comment lines and splits on ';'. go-ora executes
// one statement per call and rejects a trailing ';'.
func SplitStatements(sqlText string) []string {
	var b strings.Builder
	for _, line := range strings.Split(sqlText, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var statements []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Migrator applies embedded migrations once each, recording versions in
// schema_migrations. Oracle DDL commits implicitly, so a migration that fails
// halfway must be repaired by hand before it is retried.
type Migrator struct {
	db         *sqlx.DB
	logger     *zap.Logger
	migrations []Migration
}

func NewMigrator(db *sqlx.DB, logger *zap.Logger) (*Migrator, error) {
	migrations, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, logger: logger, migrations: migrations}, nil
}

// Up applies pending migrations and returns the versions it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	var applied []string
	for _, mig := range m.migrations {
		var count int
		if err := m.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schema_migrations WHERE version = :1`, mig.Version); err != nil {
			return applied, fmt.Errorf("could not check migration %s: %w", mig.Version, err)
		}
		if count > 0 {
			m.logger.Debug("Migration already applied", zap.String("version", mig.Version))
			continue
		}

		for i, stmt := range mig.Statements {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("could not execute migration %s statement %d: %w", mig.Version, i+1, err)
			}
		}
		if _, err := m.db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (:1, SYSTIMESTAMP)`, mig.Version); err != nil {
			return applied, fmt.Errorf("could not record migration %s: %w", mig.Version, err)
		}
		m.logger.Info("Executed migration", zap.String("version", mig.Version), zap.Int("statements", len(mig.Statements)))
		applied = append(applied, mig.Version)
	}
	return applied, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	var count int
	err := m.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM user_tables WHERE table_name = :1`, strings.ToUpper(migrationsTable))
	if err != nil {
		return fmt.Errorf("could not look up %s: %w", migrationsTable, err)
	}
	if count > 0 {
		return nil
	}
	_, err = m.db.ExecContext(ctx, `CREATE TABLE schema_migrations (
		version VARCHAR2(255) PRIMARY KEY,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", migrationsTable, err)
	}
	return nil
}
