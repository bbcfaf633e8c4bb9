package publications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/dmitrijs2005/flashvault/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const upsertQuery = `
	INSERT INTO publications (cid, kind, name, owner, created_at, registered, edited_from, superseded_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cid) DO UPDATE SET
		kind = excluded.kind,
		name = excluded.name,
		owner = excluded.owner,
		created_at = excluded.created_at,
		registered = excluded.registered,
		edited_from = excluded.edited_from,
		superseded_by = excluded.superseded_by
`

func record(ctx context.Context, db dbx.DBTX, p *models.Publication) error {
	_, err := db.ExecContext(ctx, upsertQuery,
		p.CID, string(p.Kind), p.Name, p.Owner, p.CreatedAt.UnixMilli(),
		p.Registered, p.EditedFrom, p.SupersededBy)
	if err != nil {
		return fmt.Errorf("failed to record publication %s: %w", p.CID, err)
	}
	return nil
}

func (r *SQLiteRepository) Record(ctx context.Context, p *models.Publication) error {
	return record(ctx, r.db, p)
}

func (r *SQLiteRepository) MarkRegistered(ctx context.Context, cid string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publications SET registered = 1 WHERE cid = ?`, cid)
	if err != nil {
		return fmt.Errorf("failed to mark %s registered: %w", cid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark %s registered: %w", cid, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Supersede(ctx context.Context, oldCID string, next *models.Publication) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p := *next
		p.EditedFrom = oldCID
		if err := record(ctx, tx, &p); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE publications SET superseded_by = ? WHERE cid = ?`, next.CID, oldCID); err != nil {
			return fmt.Errorf("failed to supersede %s: %w", oldCID, err)
		}
		return nil
	})
}

const selectColumns = `cid, kind, name, owner, created_at, registered, edited_from, superseded_by`

type scanner interface {
	Scan(dest ...any) error
}

func scanPublication(s scanner) (*models.Publication, error) {
	var (
		p         models.Publication
		kind      string
		createdAt int64
	)
	if err := s.Scan(&p.CID, &kind, &p.Name, &p.Owner, &createdAt, &p.Registered, &p.EditedFrom, &p.SupersededBy); err != nil {
		return nil, err
	}
	p.Kind = models.Kind(kind)
	p.CreatedAt = time.UnixMilli(createdAt)
	return &p, nil
}

func (r *SQLiteRepository) GetByCID(ctx context.Context, cid string) (*models.Publication, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM publications WHERE cid = ?`, cid)
	p, err := scanPublication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publication %s: %w", cid, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get publication %s: %w", cid, err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]*models.Publication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM publications
		WHERE registered = 0 AND edited_from = '' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending publications: %w", err)
	}
	defer rows.Close()

	pending := []*models.Publication{}
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publications: %w", err)
	}
	return pending, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, cid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM publications WHERE cid = ?`, cid); err != nil {
		return fmt.Errorf("failed to delete publication %s: %w", cid, err)
	}
	return nil
}
