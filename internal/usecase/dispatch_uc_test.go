//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/adapter"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/infra/sendstats"
	"telegram-email-bot/internal/usecase"
)

// dispatchFixture wires a DispatchUseCase with every collaborator mocked
// and a seeded group + template.
type dispatchFixture struct {
	groups    *MockGroupRepo
	templates *MockTemplateRepo
	campaigns *MockCampaignRepo
	history   *MockHistoryRepo
	blocklist *MockBlocklistRepo
	mailer    *MockMailer
	cancel    *MockCancelRegistry
	journal   *sendstats.Log
	uc        usecase.DispatchUseCase
}

func newDispatchFixture(t *testing.T, bodyHTML string) *dispatchFixture {
	t.Helper()
	testLogger := newTestLogger()
	ctx := context.Background()

	f := &dispatchFixture{
		groups:    NewMockGroupRepo(),
		templates: NewMockTemplateRepo(),
		campaigns: NewMockCampaignRepo(),
		history:   NewMockHistoryRepo(),
		blocklist: NewMockBlocklistRepo(),
		mailer:    NewMockMailer(),
		cancel:    NewMockCancelRegistry(),
		journal:   newJournal(t),
	}

	group, err := model.NewGroup("invest", "Investors", "Best regards")
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	if err := f.groups.Save(ctx, nil, group); err != nil {
		t.Fatalf("save group: %v", err)
	}
	tpl, err := model.NewTemplate("invest", "Offer", bodyHTML)
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	if err := f.templates.Save(ctx, nil, tpl); err != nil {
		t.Fatalf("save template: %v", err)
	}

	cooldown := usecase.NewCooldownService(f.history, f.journal, 180, testLogger)
	sendList := usecase.NewSendListUseCase(f.blocklist, cooldown, f.history, testLogger)
	f.uc = usecase.NewDispatchUseCase(
		f.groups, f.templates, f.campaigns, f.history, f.blocklist,
		sendList, f.mailer, f.journal, f.cancel,
		0, // no inter-send sleep in tests
		testLogger,
	)
	return f
}

func TestDispatchUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("Run delivers to every recipient and finishes done", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>Hello {{email}}</p><p>{{signature}}</p>")
		emails := []string{"a@example.ru", "b@example.ru", "c@example.com"}
		var progressCalls int

		// --- Act ---
		campaign, err := f.uc.Run(ctx, 77, "invest", emails, func(c *model.Campaign, processed, total int) {
			progressCalls++
		})

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if campaign.State != model.CampaignDone {
			t.Errorf("state = %s, want done", campaign.State)
		}
		if got := campaign.Counts[model.OutcomeSent]; got != 3 {
			t.Errorf("sent = %d, want 3", got)
		}
		if len(f.mailer.Sent) != 3 {
			t.Errorf("mailer got %d messages, want 3", len(f.mailer.Sent))
		}
		if progressCalls != 3 {
			t.Errorf("progress called %d times, want 3", progressCalls)
		}
		// every delivery lands in history and the journal
		if len(f.history.Recorded) != 3 {
			t.Errorf("history got %d records, want 3", len(f.history.Recorded))
		}
		sends, err := f.journal.LastSends()
		if err != nil {
			t.Fatalf("journal: %v", err)
		}
		if len(sends) != 3 {
			t.Errorf("journal has %d addresses, want 3", len(sends))
		}
	})

	t.Run("Run substitutes per-recipient placeholders", func(t *testing.T) {
		f := newDispatchFixture(t, "<p>To {{email}} from {{group}}</p>")

		_, err := f.uc.Run(ctx, 77, "invest", []string{"a@example.ru"}, nil)

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if len(f.mailer.Sent) != 1 {
			t.Fatalf("mailer got %d messages, want 1", len(f.mailer.Sent))
		}
		want := "<p>To a@example.ru from Investors</p>"
		if got := f.mailer.Sent[0].BodyHTML; got != want {
			t.Errorf("body = %q, want %q", got, want)
		}
	})

	t.Run("Run refuses a template with an unknown placeholder", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>Dear {{first_name}}</p>")

		// --- Act ---
		_, err := f.uc.Run(ctx, 77, "invest", []string{"a@example.ru"}, nil)

		// --- Assert ---
		var rErr *model.RenderError
		if !errors.As(err, &rErr) {
			t.Fatalf("expected RenderError, got %v", err)
		}
		if len(f.mailer.Sent) != 0 {
			t.Errorf("no mail should go out on a broken template, got %d", len(f.mailer.Sent))
		}
	})

	t.Run("Run refuses to start while another campaign is running", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>hi</p>")
		running, _ := model.NewCampaign("invest", 77, 10)
		if err := f.campaigns.Save(ctx, nil, running); err != nil {
			t.Fatalf("save: %v", err)
		}

		// --- Act ---
		_, err := f.uc.Run(ctx, 77, "invest", []string{"a@example.ru"}, nil)

		// --- Assert ---
		if !errors.Is(err, domain.ErrCampaignRunning) {
			t.Errorf("expected ErrCampaignRunning, got %v", err)
		}
	})

	t.Run("Run fails when filtering leaves no recipients", func(t *testing.T) {
		f := newDispatchFixture(t, "<p>hi</p>")

		_, err := f.uc.Run(ctx, 77, "invest", []string{"garbage", "noreply@example.com"}, nil)

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Run stops mid-campaign when cancellation is requested", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>hi</p>")
		f.cancel.CancelAfter = 2 // let two recipients through, then trip

		emails := []string{"a@example.ru", "b@example.ru", "c@example.ru", "d@example.ru"}

		// --- Act ---
		campaign, err := f.uc.Run(ctx, 77, "invest", emails, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if campaign.State != model.CampaignCancelled {
			t.Errorf("state = %s, want cancelled", campaign.State)
		}
		if got := campaign.Counts[model.OutcomeSent]; got != 2 {
			t.Errorf("sent = %d, want 2", got)
		}
	})

	t.Run("Run records failed deliveries and keeps going", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>hi</p>")
		f.mailer.SendFunc = func(ctx context.Context, mail *adapter.OutgoingMail) (*adapter.SendResult, error) {
			if mail.To == "bad@example.ru" {
				return &adapter.SendResult{SMTPCode: 550}, errors.New("mailbox unavailable")
			}
			return &adapter.SendResult{MessageID: "<ok@localhost>", SMTPCode: 250}, nil
		}

		// --- Act ---
		campaign, err := f.uc.Run(ctx, 77, "invest", []string{"good@example.ru", "bad@example.ru"}, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if campaign.State != model.CampaignDone {
			t.Errorf("state = %s, want done", campaign.State)
		}
		if got := campaign.Counts[model.OutcomeSent]; got != 1 {
			t.Errorf("sent = %d, want 1", got)
		}
		if got := campaign.Counts[model.OutcomeError]; got != 1 {
			t.Errorf("errors = %d, want 1", got)
		}
		// the failed attempt still lands in history with the SMTP code
		var failed *model.SendRecord
		for i := range f.history.Recorded {
			if f.history.Recorded[i].Email == "bad@example.ru" {
				failed = &f.history.Recorded[i]
			}
		}
		if failed == nil {
			t.Fatal("failed delivery missing from history")
		}
		if failed.SMTPResult != "error:550" {
			t.Errorf("smtp_result = %q, want error:550", failed.SMTPResult)
		}
		// but never in the journal, which only tracks successes
		sends, _ := f.journal.LastSends()
		if _, ok := sends["bad@example.ru"]; ok {
			t.Error("failed delivery must not enter the journal")
		}
	})

	t.Run("Run blocklists hard bounces but not transient failures", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>hi</p>")
		f.mailer.SendFunc = func(ctx context.Context, mail *adapter.OutgoingMail) (*adapter.SendResult, error) {
			switch mail.To {
			case "gone@example.ru":
				return &adapter.SendResult{SMTPCode: 550}, errors.New("no such user")
			case "greylisted@example.ru":
				return &adapter.SendResult{SMTPCode: 451}, errors.New("try again later")
			}
			return &adapter.SendResult{MessageID: "<ok@localhost>", SMTPCode: 250}, nil
		}
		type addCall struct {
			emails []string
			reason string
		}
		var added []addCall
		f.blocklist.AddFunc = func(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error) {
			added = append(added, addCall{emails: emails, reason: reason})
			return len(emails), nil
		}

		// --- Act ---
		campaign, err := f.uc.Run(ctx, 77, "invest",
			[]string{"good@example.ru", "gone@example.ru", "greylisted@example.ru"}, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if got := campaign.Counts[model.OutcomeError]; got != 2 {
			t.Errorf("errors = %d, want 2", got)
		}
		if len(added) != 1 {
			t.Fatalf("blocklist additions = %d, want 1", len(added))
		}
		if added[0].reason != "bounce" {
			t.Errorf("reason = %q, want bounce", added[0].reason)
		}
		if len(added[0].emails) != 1 || added[0].emails[0] != "gone@example.ru" {
			t.Errorf("blocklisted %v, want [gone@example.ru]", added[0].emails)
		}
	})

	t.Run("Run pre-seeds skip counts into the campaign", func(t *testing.T) {
		// --- Arrange ---
		f := newDispatchFixture(t, "<p>hi</p>")
		f.blocklist.AllFunc = func(ctx context.Context, tx repository.Tx) ([]string, error) {
			return []string{"blocked@example.ru"}, nil
		}
		today := time.Now().UTC()
		f.history.LastSendAnyGroupFunc = func(ctx context.Context, tx repository.Tx, email string) (string, *time.Time, error) {
			if email == "today@example.ru" {
				return "invest", &today, nil
			}
			return "", nil, nil
		}

		// --- Act ---
		campaign, err := f.uc.Run(ctx, 77, "invest",
			[]string{"a@example.ru", "a@example.ru", "blocked@example.ru", "today@example.ru"}, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if got := campaign.Counts[model.OutcomeDuplicate]; got != 1 {
			t.Errorf("duplicate = %d, want 1", got)
		}
		if got := campaign.Counts[model.OutcomeBlocked]; got != 1 {
			t.Errorf("blocked = %d, want 1", got)
		}
		// a same-day drop lands in the cooldown counter
		if got := campaign.Counts[model.OutcomeCooldown]; got != 1 {
			t.Errorf("cooldown = %d, want 1", got)
		}
	})

	t.Run("Cancel without a running campaign returns not found", func(t *testing.T) {
		f := newDispatchFixture(t, "<p>hi</p>")

		err := f.uc.Cancel(ctx, 77)

		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Running maps not-found to nil", func(t *testing.T) {
		f := newDispatchFixture(t, "<p>hi</p>")

		c, err := f.uc.Running(ctx, 77)

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if c != nil {
			t.Errorf("expected nil campaign, got %+v", c)
		}
	})

	t.Run("Campaign timestamps land in history as UTC", func(t *testing.T) {
		f := newDispatchFixture(t, "<p>hi</p>")

		before := time.Now().UTC()
		_, err := f.uc.Run(ctx, 77, "invest", []string{"a@example.ru"}, nil)
		after := time.Now().UTC()

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		rec := f.history.Recorded[0]
		if rec.SentAt.Location() != time.UTC {
			t.Errorf("SentAt not UTC: %v", rec.SentAt.Location())
		}
		if rec.SentAt.Before(before) || rec.SentAt.After(after) {
			t.Errorf("SentAt %v outside [%v, %v]", rec.SentAt, before, after)
		}
	})
}
