package usecase

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
)

var _ GroupUseCase = (*groupUC)(nil)

// GroupUseCase manages mailing directions and the letter attached to each.
type GroupUseCase interface {
	Upsert(ctx context.Context, code, title, signature string) (*model.Group, error)
	Get(ctx context.Context, code string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
	Delete(ctx context.Context, code string) error

	SetTemplate(ctx context.Context, groupCode, subject, bodyHTML string) error
	Template(ctx context.Context, groupCode string) (*model.Template, error)
}

type groupUC struct {
	groups         repository.GroupRepository
	templates      repository.TemplateRepository
	tm             repository.TransactionManager
	defaultSubject string
	log            *zerolog.Logger
}

func NewGroupUseCase(groups repository.GroupRepository, templates repository.TemplateRepository, tm repository.TransactionManager, defaultSubject string, logger *zerolog.Logger) *groupUC {
	return &groupUC{groups: groups, templates: templates, tm: tm, defaultSubject: defaultSubject, log: logger}
}

func (u *groupUC) Upsert(ctx context.Context, code, title, signature string) (*model.Group, error) {
	g, err := model.NewGroup(strings.ToLower(strings.TrimSpace(code)), title, signature)
	if err != nil {
		return nil, err
	}
	if err := u.groups.Save(ctx, nil, g); err != nil {
		return nil, err
	}
	u.log.Info().Str("group", g.Code).Msg("group saved")
	return g, nil
}

func (u *groupUC) Get(ctx context.Context, code string) (*model.Group, error) {
	return u.groups.FindByCode(ctx, nil, strings.ToLower(strings.TrimSpace(code)))
}

func (u *groupUC) List(ctx context.Context) ([]*model.Group, error) {
	return u.groups.List(ctx, nil)
}

func (u *groupUC) Delete(ctx context.Context, code string) error {
	return u.groups.Delete(ctx, nil, strings.ToLower(strings.TrimSpace(code)))
}

func (u *groupUC) SetTemplate(ctx context.Context, groupCode, subject, bodyHTML string) error {
	if strings.TrimSpace(subject) == "" {
		subject = u.defaultSubject
	}
	t, err := model.NewTemplate(groupCode, subject, bodyHTML)
	if err != nil {
		return err
	}
	// group existence check and template write in one transaction so a
	// concurrent group delete cannot leave an orphaned template
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := u.groups.FindByCode(ctx, tx, groupCode); err != nil {
			return err
		}
		return u.templates.Save(ctx, tx, t)
	})
}

func (u *groupUC) Template(ctx context.Context, groupCode string) (*model.Template, error) {
	return u.templates.FindByGroup(ctx, nil, groupCode)
}
