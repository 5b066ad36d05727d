package repository

import (
	"context"

	"telegram-email-bot/internal/domain/model"
)

// -----------------------------
// Groups (mailing directions)
// -----------------------------

type GroupRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Group) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Group, error)
	List(ctx context.Context, tx Tx) ([]*model.Group, error)
	Delete(ctx context.Context, tx Tx, code string) error
}

// -----------------------------
// Templates
// -----------------------------

type TemplateRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Template) error
	FindByGroup(ctx context.Context, tx Tx, groupCode string) (*model.Template, error)
}
