package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
)

var _ repository.HistoryRepository = (*PostgresHistoryRepo)(nil)

type PostgresHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresHistoryRepo(pool *pgxpool.Pool) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{pool: pool}
}

func (r *PostgresHistoryRepo) RecordSend(ctx context.Context, tx repository.Tx, rec *model.SendRecord) error {
	const q = `
INSERT INTO send_history (email, group_code, sent_at, message_id, run_id, smtp_result)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.Email, rec.GroupCode, rec.SentAt.UTC(), rec.MessageID, rec.RunID, rec.SMTPResult)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepo) LastSend(ctx context.Context, tx repository.Tx, email, groupCode string) (*time.Time, error) {
	const q = `
SELECT sent_at FROM send_history
 WHERE email=$1 AND group_code=$2 AND smtp_result='ok'
 ORDER BY sent_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, email, groupCode)
	if err != nil {
		return nil, err
	}
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ts = ts.UTC()
	return &ts, nil
}

func (r *PostgresHistoryRepo) LastSendAnyGroup(ctx context.Context, tx repository.Tx, email string) (string, *time.Time, error) {
	const q = `
SELECT group_code, sent_at FROM send_history
 WHERE email=$1 AND smtp_result='ok'
 ORDER BY sent_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return "", nil, err
	}
	var group string
	var ts time.Time
	if err := row.Scan(&group, &ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, err
	}
	ts = ts.UTC()
	return group, &ts, nil
}

func (r *PostgresHistoryRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (map[string]model.GroupSendStats, error) {
	const q = `
SELECT group_code,
       COUNT(*) FILTER (WHERE smtp_result='ok')  AS sent,
       COUNT(*) FILTER (WHERE smtp_result<>'ok') AS errors
  FROM send_history
 WHERE sent_at >= $1
 GROUP BY group_code;`
	rows, err := queryRows(ctx, r.pool, tx, q, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.GroupSendStats)
	for rows.Next() {
		var group string
		var st model.GroupSendStats
		if err := rows.Scan(&group, &st.Sent, &st.Errors); err != nil {
			return nil, err
		}
		out[group] = st
	}
	return out, rows.Err()
}

func (r *PostgresHistoryRepo) PruneOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM send_history WHERE sent_at < $1;`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}
