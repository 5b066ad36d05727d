package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/adapter"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/infra/logging"
	"telegram-email-bot/internal/infra/metrics"
	"telegram-email-bot/internal/infra/sendstats"
)

// ProgressFunc receives periodic updates while a campaign runs.
type ProgressFunc func(c *model.Campaign, processed, total int)

var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase runs mass send campaigns: one group, one rendered letter
// per recipient, sequential delivery with cancellation support.
type DispatchUseCase interface {
	Run(ctx context.Context, chatID int64, groupCode string, emails []string, progress ProgressFunc) (*model.Campaign, error)
	Cancel(ctx context.Context, chatID int64) error
	Running(ctx context.Context, chatID int64) (*model.Campaign, error)
}

type dispatchUC struct {
	groups    repository.GroupRepository
	templates repository.TemplateRepository
	campaigns repository.CampaignRepository
	history   repository.HistoryRepository
	blocklist repository.BlocklistRepository
	sendList  SendListUseCase
	mailer    adapter.Mailer
	journal   *sendstats.Log
	cancel    repository.CancelRegistry

	sleepBetween time.Duration
	log          *zerolog.Logger
}

func NewDispatchUseCase(
	groups repository.GroupRepository,
	templates repository.TemplateRepository,
	campaigns repository.CampaignRepository,
	history repository.HistoryRepository,
	blocklist repository.BlocklistRepository,
	sendList SendListUseCase,
	mailer adapter.Mailer,
	journal *sendstats.Log,
	cancel repository.CancelRegistry,
	sleepBetween time.Duration,
	logger *zerolog.Logger,
) *dispatchUC {
	return &dispatchUC{
		groups:       groups,
		templates:    templates,
		campaigns:    campaigns,
		history:      history,
		blocklist:    blocklist,
		sendList:     sendList,
		mailer:       mailer,
		journal:      journal,
		cancel:       cancel,
		sleepBetween: sleepBetween,
		log:          logger,
	}
}

func (u *dispatchUC) Running(ctx context.Context, chatID int64) (*model.Campaign, error) {
	c, err := u.campaigns.FindRunningByChat(ctx, nil, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (u *dispatchUC) Cancel(ctx context.Context, chatID int64) error {
	running, err := u.Running(ctx, chatID)
	if err != nil {
		return err
	}
	if running == nil {
		return domain.ErrNotFound
	}
	return u.cancel.RequestCancel(ctx, chatID)
}

// Run executes one campaign to completion. It refuses to start while the
// chat already has a running campaign, and aborts before the first letter
// when the group template has unresolvable placeholders.
func (u *dispatchUC) Run(ctx context.Context, chatID int64, groupCode string, emails []string, progress ProgressFunc) (*model.Campaign, error) {
	defer logging.TraceDuration(u.log, "DispatchUC.Run")()

	if running, err := u.Running(ctx, chatID); err != nil {
		return nil, err
	} else if running != nil {
		return nil, domain.ErrCampaignRunning
	}

	group, err := u.groups.FindByCode(ctx, nil, groupCode)
	if err != nil {
		return nil, err
	}
	tpl, err := u.templates.FindByGroup(ctx, nil, groupCode)
	if err != nil {
		return nil, err
	}
	// probe-render before any SMTP traffic so a broken template aborts
	// the whole run instead of half of it
	if _, err := tpl.Render(u.renderVars("probe@example.com", group)); err != nil {
		return nil, err
	}

	list, err := u.sendList.Build(ctx, emails)
	if err != nil {
		return nil, err
	}
	if len(list.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients left after filtering", domain.ErrInvalidArgument)
	}

	campaign, err := model.NewCampaign(groupCode, chatID, len(list.Recipients))
	if err != nil {
		return nil, err
	}
	for reason, n := range list.Counts {
		switch reason {
		case SkipCooldown, SkipSentToday:
			// a same-day drop is the cooldown guard at its tightest
			campaign.Counts[model.OutcomeCooldown] += n
		case SkipBlocked:
			campaign.Counts[model.OutcomeBlocked] += n
		case SkipDuplicate:
			campaign.Counts[model.OutcomeDuplicate] += n
		}
	}
	if err := u.campaigns.Save(ctx, nil, campaign); err != nil {
		return nil, err
	}
	if err := u.cancel.Reset(ctx, chatID); err != nil {
		u.log.Warn().Err(err).Msg("cancel flag reset failed")
	}

	runCtx := logging.WithGroup(logging.WithRunID(ctx, campaign.ID), groupCode)
	runLog := logging.With(runCtx, u.log)
	runLog.Info().Int("total", campaign.Total).Msg("campaign started")

	state := u.deliverAll(ctx, campaign, group, tpl, list.Recipients, runLog, progress)

	campaign.Finish(state)
	if err := u.campaigns.Save(context.Background(), nil, campaign); err != nil {
		runLog.Error().Err(err).Msg("final campaign save failed")
	}
	metrics.IncCampaign(string(state))
	runLog.Info().
		Str("state", string(state)).
		Int("sent", campaign.Counts[model.OutcomeSent]).
		Int("errors", campaign.Counts[model.OutcomeError]).
		Msg("campaign finished")
	return campaign, nil
}

func (u *dispatchUC) deliverAll(
	ctx context.Context,
	campaign *model.Campaign,
	group *model.Group,
	tpl *model.Template,
	recipients []string,
	runLog *zerolog.Logger,
	progress ProgressFunc,
) model.CampaignState {
	for i, email := range recipients {
		if ctx.Err() != nil {
			return model.CampaignCancelled
		}
		if cancelled, err := u.cancel.IsCancelled(ctx, campaign.ChatID); err == nil && cancelled {
			runLog.Info().Int("at", i).Msg("campaign cancelled by operator")
			return model.CampaignCancelled
		}

		body, err := tpl.Render(u.renderVars(email, group))
		if err != nil {
			// cannot happen after the probe render unless vars diverge
			runLog.Error().Err(err).Msg("render failed mid-run")
			return model.CampaignFailed
		}

		outcome := u.deliverOne(ctx, campaign, email, tpl.Subject, body, runLog)
		campaign.Record(outcome)
		metrics.IncEmail(campaign.GroupCode, string(outcome))

		if progress != nil {
			progress(campaign, i+1, len(recipients))
		}
		if (i+1)%25 == 0 {
			if err := u.campaigns.Save(ctx, nil, campaign); err != nil {
				runLog.Warn().Err(err).Msg("progress save failed")
			}
		}
		if i+1 < len(recipients) {
			if err := sleepFor(ctx, u.sleepBetween); err != nil {
				return model.CampaignCancelled
			}
		}
	}
	return model.CampaignDone
}

func (u *dispatchUC) deliverOne(ctx context.Context, campaign *model.Campaign, email, subject, body string, runLog *zerolog.Logger) model.Outcome {
	start := time.Now()
	res, err := u.mailer.Send(ctx, &adapter.OutgoingMail{
		To:        email,
		Subject:   subject,
		BodyHTML:  body,
		GroupCode: campaign.GroupCode,
		RunID:     campaign.ID,
	})
	latency := int(time.Since(start).Milliseconds())
	metrics.ObserveSMTPSend(latency, err == nil)

	rec := &model.SendRecord{
		Email:     email,
		GroupCode: campaign.GroupCode,
		SentAt:    time.Now().UTC(),
		RunID:     campaign.ID,
	}
	if res != nil {
		rec.MessageID = res.MessageID
	}
	if err != nil {
		code := 0
		if res != nil {
			code = res.SMTPCode
		}
		rec.SMTPResult = fmt.Sprintf("error:%d", code)
		if hErr := u.history.RecordSend(ctx, nil, rec); hErr != nil {
			runLog.Error().Err(hErr).Msg("history record failed")
		}
		// A 5xx is the server telling us the mailbox is gone for good.
		if code >= 500 && code < 600 {
			if _, bErr := u.blocklist.Add(ctx, nil, []string{email}, "bounce"); bErr != nil {
				runLog.Error().Err(bErr).Str("email", logging.RedactEmail(email)).Msg("bounce blocklisting failed")
			} else {
				runLog.Info().Str("email", logging.RedactEmail(email)).Int("code", code).Msg("hard bounce, address blocklisted")
			}
		}
		runLog.Warn().Err(err).Str("email", logging.RedactEmail(email)).Int("code", code).Msg("delivery failed")
		return model.OutcomeError
	}

	rec.SMTPResult = "ok"
	if hErr := u.history.RecordSend(ctx, nil, rec); hErr != nil {
		runLog.Error().Err(hErr).Msg("history record failed")
	}
	if jErr := u.journal.Append(sendstats.Record{
		Email:  email,
		SentAt: rec.SentAt,
		Group:  campaign.GroupCode,
		RunID:  campaign.ID,
	}); jErr != nil {
		runLog.Warn().Err(jErr).Msg("journal append failed")
	}
	return model.OutcomeSent
}

func (u *dispatchUC) renderVars(email string, group *model.Group) map[string]string {
	return map[string]string{
		"email":     email,
		"group":     group.Title,
		"signature": group.Signature,
	}
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
