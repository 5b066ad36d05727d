package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/extract"
	"telegram-email-bot/internal/usecase"
)

const previewLimit = 10

// BotFacade composes usecases into high-level bot commands.
// Methods return ready-to-send strings so the Telegram adapter just
// forwards them to the chat.
type BotFacade struct {
	ExtractUC   usecase.ExtractionUseCase
	SendListUC  usecase.SendListUseCase
	DispatchUC  usecase.DispatchUseCase
	GroupUC     usecase.GroupUseCase
	BlocklistUC usecase.BlocklistUseCase
	StatsUC     usecase.StatsUseCase
	Pending     repository.PendingSendRepository
}

func NewBotFacade(
	extractUC usecase.ExtractionUseCase,
	sendListUC usecase.SendListUseCase,
	dispatchUC usecase.DispatchUseCase,
	groupUC usecase.GroupUseCase,
	blocklistUC usecase.BlocklistUseCase,
	statsUC usecase.StatsUseCase,
	pending repository.PendingSendRepository,
) *BotFacade {
	return &BotFacade{
		ExtractUC:   extractUC,
		SendListUC:  sendListUC,
		DispatchUC:  dispatchUC,
		GroupUC:     groupUC,
		BlocklistUC: blocklistUC,
		StatsUC:     statsUC,
		Pending:     pending,
	}
}

func (b *BotFacade) HandleStart(ctx context.Context) (string, error) {
	return "Mailing assistant ready.\n" +
		"Upload a PDF, Excel, DOCX, CSV or ZIP file and I will collect the addresses in it.\n" +
		"Use /help for the full command list.", nil
}

func (b *BotFacade) HandleHelp(ctx context.Context) (string, error) {
	return strings.Join([]string{
		"Commands:",
		"/groups - list mailing groups",
		"/send - choose a group for the uploaded addresses",
		"/cancel - cancel the running campaign or drop the uploaded list",
		"/block <emails> - add addresses to the blocklist",
		"/unblock <email> - remove an address from the blocklist",
		"/blocked - blocklist size and preview",
		"/stats - delivery numbers for the last 24 hours",
		"/report - state of the current campaign",
		"",
		"Upload a document to begin.",
	}, "\n"), nil
}

// HandleGroups returns a formatted list of mailing groups.
func (b *BotFacade) HandleGroups(ctx context.Context) (string, error) {
	groups, err := b.GroupUC.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return "No groups configured yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("Mailing groups:\n")
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", g.Code, g.Title))
	}
	return sb.String(), nil
}

// HandleUpload extracts addresses from an uploaded document, stores them as
// the chat's pending list and returns a preview.
func (b *BotFacade) HandleUpload(ctx context.Context, chatID int64, filename string, data []byte) (string, error) {
	if !b.ExtractUC.Supported(filename) {
		return fmt.Sprintf("Unsupported file type. I can read: %s.", strings.Join(extract.Extensions(), ", ")), nil
	}
	res, err := b.ExtractUC.FromUpload(ctx, filename, data)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) {
			return "I could not parse this file.", nil
		}
		return "", fmt.Errorf("extract: %w", err)
	}
	emails := res.Emails()
	if len(emails) == 0 {
		return "No e-mail addresses found in this document.", nil
	}

	if err := b.Pending.Set(ctx, chatID, &repository.PendingSend{
		Emails:     emails,
		SourceName: filename,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("store pending list: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d addresses in %s.\n", len(emails), filename)
	sb.WriteString(previewBlock(emails))
	sb.WriteString("\nUse /send to pick a group and start the campaign.")
	return sb.String(), nil
}

// HandleChooseGroup binds the pending list to a group and reports what the
// campaign would actually send after filtering.
func (b *BotFacade) HandleChooseGroup(ctx context.Context, chatID int64, groupCode string) (string, error) {
	pending, err := b.Pending.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No uploaded list. Send me a document first.", nil
		}
		return "", err
	}
	group, err := b.GroupUC.Get(ctx, groupCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("Unknown group %q. Use /groups.", groupCode), nil
		}
		return "", err
	}
	if _, err := b.GroupUC.Template(ctx, group.Code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("Group %q has no letter template yet.", group.Code), nil
		}
		return "", err
	}

	list, err := b.SendListUC.Build(ctx, pending.Emails)
	if err != nil {
		return "", fmt.Errorf("build send list: %w", err)
	}

	pending.GroupCode = group.Code
	pending.Skipped = len(pending.Emails) - len(list.Recipients)
	if err := b.Pending.Set(ctx, chatID, pending); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Group: %s (%s)\n", group.Code, group.Title)
	fmt.Fprintf(&sb, "Will send: %d of %d\n", len(list.Recipients), len(pending.Emails))
	writeSkipCounts(&sb, list.Counts)
	sb.WriteString("\nConfirm to start sending.")
	return sb.String(), nil
}

// PendingCampaign returns the chat's prepared list, or nil without error
// when nothing is staged.
func (b *BotFacade) PendingCampaign(ctx context.Context, chatID int64) (*repository.PendingSend, error) {
	pending, err := b.Pending.Get(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return pending, err
}

// RunPending launches the confirmed campaign. The adapter calls this from a
// worker so polling stays responsive; progress lands back via the callback.
func (b *BotFacade) RunPending(ctx context.Context, chatID int64, progress usecase.ProgressFunc) (*model.Campaign, error) {
	pending, err := b.Pending.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: nothing staged for this chat", domain.ErrInvalidArgument)
		}
		return nil, err
	}
	if pending.GroupCode == "" {
		return nil, fmt.Errorf("%w: group not chosen", domain.ErrInvalidArgument)
	}
	campaign, err := b.DispatchUC.Run(ctx, chatID, pending.GroupCode, pending.Emails, progress)
	if err != nil {
		return nil, err
	}
	if err := b.Pending.Clear(ctx, chatID); err != nil {
		return campaign, nil
	}
	return campaign, nil
}

// HandleCancel stops the running campaign if any, otherwise drops the
// staged list.
func (b *BotFacade) HandleCancel(ctx context.Context, chatID int64) (string, error) {
	err := b.DispatchUC.Cancel(ctx, chatID)
	if err == nil {
		return "Cancelling the campaign, letters in flight will finish.", nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if err := b.Pending.Clear(ctx, chatID); err != nil {
		return "", err
	}
	return "Nothing is running. Staged list dropped.", nil
}

// HandleBlock adds addresses to the blocklist.
func (b *BotFacade) HandleBlock(ctx context.Context, emails []string) (string, error) {
	if len(emails) == 0 {
		return "Usage: /block email1 email2 ...", nil
	}
	added, err := b.BlocklistUC.Block(ctx, emails, "manual")
	if err != nil {
		return "", fmt.Errorf("block: %w", err)
	}
	return fmt.Sprintf("Blocked %d new address(es).", added), nil
}

func (b *BotFacade) HandleUnblock(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "Usage: /unblock email", nil
	}
	if err := b.BlocklistUC.Unblock(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "That address is not blocked.", nil
		}
		return "", err
	}
	return "Unblocked.", nil
}

func (b *BotFacade) HandleBlocked(ctx context.Context) (string, error) {
	total, err := b.BlocklistUC.Count(ctx)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "Blocklist is empty.", nil
	}
	entries, err := b.BlocklistUC.List(ctx, previewLimit, 0)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Blocked addresses: %d\n", total)
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s\n", e.Email)
	}
	if total > len(entries) {
		fmt.Fprintf(&sb, "... and %d more\n", total-len(entries))
	}
	return sb.String(), nil
}

// HandleStats formats the last day's delivery numbers.
func (b *BotFacade) HandleStats(ctx context.Context) (string, error) {
	return b.StatsUC.DigestText(ctx)
}

// HandleReport describes the chat's current campaign or staged list.
func (b *BotFacade) HandleReport(ctx context.Context, chatID int64) (string, error) {
	running, err := b.DispatchUC.Running(ctx, chatID)
	if err != nil {
		return "", err
	}
	if running != nil {
		return fmt.Sprintf(
			"Campaign %s is running.\nGroup: %s\nProcessed: %d of %d (sent %d, errors %d)",
			running.ID, running.GroupCode, running.Processed(), running.Total,
			running.Counts[model.OutcomeSent], running.Counts[model.OutcomeError],
		), nil
	}
	pending, err := b.PendingCampaign(ctx, chatID)
	if err != nil {
		return "", err
	}
	if pending == nil {
		return "No campaign running and nothing staged.", nil
	}
	state := "waiting for a group"
	if pending.GroupCode != "" {
		state = fmt.Sprintf("staged for group %s", pending.GroupCode)
	}
	return fmt.Sprintf("%d addresses from %s, %s.", len(pending.Emails), pending.SourceName, state), nil
}

// CampaignSummary renders the terminal report posted when a run ends.
func CampaignSummary(c *model.Campaign) string {
	var sb strings.Builder
	switch c.State {
	case model.CampaignCancelled:
		sb.WriteString("Campaign cancelled.\n")
	case model.CampaignFailed:
		sb.WriteString("Campaign failed.\n")
	default:
		sb.WriteString("Campaign finished.\n")
	}
	fmt.Fprintf(&sb, "Group: %s\n", c.GroupCode)
	fmt.Fprintf(&sb, "Sent: %d\n", c.Counts[model.OutcomeSent])
	for _, o := range []model.Outcome{model.OutcomeCooldown, model.OutcomeBlocked, model.OutcomeDuplicate, model.OutcomeError} {
		if n := c.Counts[o]; n > 0 {
			fmt.Fprintf(&sb, "Skipped (%s): %d\n", o, n)
		}
	}
	return sb.String()
}

func previewBlock(emails []string) string {
	n := len(emails)
	if n > previewLimit {
		n = previewLimit
	}
	var sb strings.Builder
	for _, e := range emails[:n] {
		fmt.Fprintf(&sb, "- %s\n", e)
	}
	if len(emails) > n {
		fmt.Fprintf(&sb, "... and %d more\n", len(emails)-n)
	}
	return sb.String()
}

func writeSkipCounts(sb *strings.Builder, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(sb, "Skipped (%s): %d\n", r, counts[r])
	}
}
