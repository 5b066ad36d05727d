package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
)

var _ repository.GroupRepository = (*PostgresGroupRepo)(nil)

type PostgresGroupRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresGroupRepo(pool *pgxpool.Pool) *PostgresGroupRepo {
	return &PostgresGroupRepo{pool: pool}
}

func (r *PostgresGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	const q = `
INSERT INTO groups (code, title, signature, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (code) DO UPDATE SET title=$2, signature=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, g.Code, g.Title, g.Signature, g.CreatedAt)
	return err
}

func (r *PostgresGroupRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Group, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT code, title, signature, created_at FROM groups WHERE code=$1;`, code)
	if err != nil {
		return nil, err
	}
	var g model.Group
	if err := row.Scan(&g.Code, &g.Title, &g.Signature, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGroupRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT code, title, signature, created_at FROM groups ORDER BY code;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.Code, &g.Title, &g.Signature, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (r *PostgresGroupRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM groups WHERE code=$1;`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ repository.TemplateRepository = (*PostgresTemplateRepo)(nil)

type PostgresTemplateRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateRepo(pool *pgxpool.Pool) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{pool: pool}
}

func (r *PostgresTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.Template) error {
	const q = `
INSERT INTO templates (group_code, subject, body_html, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (group_code) DO UPDATE SET subject=$2, body_html=$3, updated_at=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, t.GroupCode, t.Subject, t.BodyHTML, t.UpdatedAt)
	return err
}

func (r *PostgresTemplateRepo) FindByGroup(ctx context.Context, tx repository.Tx, groupCode string) (*model.Template, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT group_code, subject, body_html, updated_at FROM templates WHERE group_code=$1;`, groupCode)
	if err != nil {
		return nil, err
	}
	var t model.Template
	if err := row.Scan(&t.GroupCode, &t.Subject, &t.BodyHTML, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
