package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
)

var _ repository.BlocklistRepository = (*PostgresBlocklistRepo)(nil)

type PostgresBlocklistRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresBlocklistRepo(pool *pgxpool.Pool) *PostgresBlocklistRepo {
	return &PostgresBlocklistRepo{pool: pool}
}

func (r *PostgresBlocklistRepo) Add(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error) {
	// ON CONFLICT DO NOTHING keeps the call idempotent; the tag counts only
	// rows actually inserted.
	const q = `
INSERT INTO blocklist (email, reason)
VALUES ($1,$2)
ON CONFLICT (email) DO NOTHING;`
	added := 0
	for _, e := range emails {
		if e == "" {
			continue
		}
		tag, err := execSQL(ctx, r.pool, tx, q, e, reason)
		if err != nil {
			return added, fmt.Errorf("blocklist add %s: %w", e, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func (r *PostgresBlocklistRepo) Remove(ctx context.Context, tx repository.Tx, email string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM blocklist WHERE email=$1;`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresBlocklistRepo) Contains(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM blocklist WHERE email=$1);`, email)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *PostgresBlocklistRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]model.BlocklistEntry, error) {
	const q = `
SELECT email, reason, added_at FROM blocklist
 ORDER BY email LIMIT $1 OFFSET $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlocklistEntry
	for rows.Next() {
		var e model.BlocklistEntry
		if err := rows.Scan(&e.Email, &e.Reason, &e.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresBlocklistRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM blocklist;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocklist: %w", err)
	}
	return n, nil
}

func (r *PostgresBlocklistRepo) All(ctx context.Context, tx repository.Tx) ([]string, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT email FROM blocklist;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
