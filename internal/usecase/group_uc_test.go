//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/usecase"
)

func TestGroupUseCase(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	newUC := func() (usecase.GroupUseCase, *MockGroupRepo, *MockTemplateRepo) {
		groups := NewMockGroupRepo()
		templates := NewMockTemplateRepo()
		uc := usecase.NewGroupUseCase(groups, templates, &MockTxManager{}, "Invitation to cooperate", testLogger)
		return uc, groups, templates
	}

	t.Run("Upsert lowercases the code and stores the group", func(t *testing.T) {
		uc, _, _ := newUC()

		g, err := uc.Upsert(ctx, "  INVEST ", "Investors", "Best regards")

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if g.Code != "invest" {
			t.Errorf("code = %q, want invest", g.Code)
		}
		got, err := uc.Get(ctx, "Invest")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Investors" {
			t.Errorf("title = %q, want Investors", got.Title)
		}
	})

	t.Run("Upsert rejects an empty title", func(t *testing.T) {
		uc, _, _ := newUC()

		_, err := uc.Upsert(ctx, "invest", "", "")

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("SetTemplate requires the group to exist", func(t *testing.T) {
		uc, _, templates := newUC()

		err := uc.SetTemplate(ctx, "ghost", "Subject", "<p>body</p>")

		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if len(templates.templates) != 0 {
			t.Error("no template should be saved for a missing group")
		}
	})

	t.Run("SetTemplate then Template round-trips", func(t *testing.T) {
		// --- Arrange ---
		uc, _, _ := newUC()
		if _, err := uc.Upsert(ctx, "invest", "Investors", ""); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		// --- Act ---
		if err := uc.SetTemplate(ctx, "invest", "Offer", "<p>Hello {{email}}</p>"); err != nil {
			t.Fatalf("set template: %v", err)
		}
		tpl, err := uc.Template(ctx, "invest")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if tpl.Subject != "Offer" {
			t.Errorf("subject = %q, want Offer", tpl.Subject)
		}
		if got := tpl.Placeholders(); len(got) != 1 || got[0] != "email" {
			t.Errorf("placeholders = %v, want [email]", got)
		}
	})

	t.Run("SetTemplate falls back to the configured subject", func(t *testing.T) {
		// --- Arrange ---
		uc, _, _ := newUC()
		if _, err := uc.Upsert(ctx, "invest", "Investors", ""); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		// --- Act ---
		if err := uc.SetTemplate(ctx, "invest", "  ", "<p>Hello</p>"); err != nil {
			t.Fatalf("set template: %v", err)
		}
		tpl, err := uc.Template(ctx, "invest")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if tpl.Subject != "Invitation to cooperate" {
			t.Errorf("subject = %q, want the configured default", tpl.Subject)
		}
	})

	t.Run("Delete on an unknown code returns not found", func(t *testing.T) {
		uc, _, _ := newUC()

		err := uc.Delete(ctx, "ghost")

		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
