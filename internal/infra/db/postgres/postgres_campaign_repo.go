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

var _ repository.CampaignRepository = (*PostgresCampaignRepo)(nil)

type PostgresCampaignRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCampaignRepo(pool *pgxpool.Pool) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{pool: pool}
}

func (r *PostgresCampaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	const q = `
INSERT INTO campaigns (id, group_code, chat_id, total, sent, cooldown, blocked, duplicate, errored, state, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  sent=$5, cooldown=$6, blocked=$7, duplicate=$8, errored=$9, state=$10, ended_at=$12;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.GroupCode, c.ChatID, c.Total,
		c.Counts[model.OutcomeSent], c.Counts[model.OutcomeCooldown],
		c.Counts[model.OutcomeBlocked], c.Counts[model.OutcomeDuplicate],
		c.Counts[model.OutcomeError],
		string(c.State), c.StartedAt, c.EndedAt)
	return err
}

func (r *PostgresCampaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Campaign, error) {
	const q = `
SELECT id, group_code, chat_id, total, sent, cooldown, blocked, duplicate, errored, state, started_at, ended_at
  FROM campaigns WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCampaign(row)
}

func (r *PostgresCampaignRepo) FindRunningByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.Campaign, error) {
	const q = `
SELECT id, group_code, chat_id, total, sent, cooldown, blocked, duplicate, errored, state, started_at, ended_at
  FROM campaigns WHERE chat_id=$1 AND state='running'
 ORDER BY started_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, chatID)
	if err != nil {
		return nil, err
	}
	return scanCampaign(row)
}

func scanCampaign(row pgx.Row) (*model.Campaign, error) {
	var c model.Campaign
	var sent, cooldown, blocked, duplicate, errored int
	var state string
	if err := row.Scan(&c.ID, &c.GroupCode, &c.ChatID, &c.Total,
		&sent, &cooldown, &blocked, &duplicate, &errored,
		&state, &c.StartedAt, &c.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.State = model.CampaignState(state)
	c.Counts = map[model.Outcome]int{
		model.OutcomeSent:      sent,
		model.OutcomeCooldown:  cooldown,
		model.OutcomeBlocked:   blocked,
		model.OutcomeDuplicate: duplicate,
		model.OutcomeError:     errored,
	}
	return &c, nil
}
