// Package localdb opens the client's SQLite file and brings its schema up to
// date with the embedded goose migrations.
package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/flashvault/internal/client/migrations"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/flashvault/internal/client/repositories/publications"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const FileName = "flashvault.db"

type Repositories struct {
	DB           *sql.DB
	Metadata     metadata.Repository
	Publications publications.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the database file inside dataDir and runs
// the migrations.
func Open(ctx context.Context, dataDir string) (*Repositories, error) {
	return OpenDSN(ctx, filepath.Join(dataDir, FileName))
}

func OpenDSN(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY under the scan fan-out
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:           db,
		Metadata:     metadata.NewSQLiteRepository(db),
		Publications: publications.NewSQLiteRepository(db),
	}, nil
}
