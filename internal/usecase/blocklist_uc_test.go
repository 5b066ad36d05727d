//go:build !integration

package usecase_test

import (
	"context"
	"reflect"
	"testing"

	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/usecase"
)

func TestBlocklistUseCase(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("Block canonicalizes, dedupes and drops invalid input", func(t *testing.T) {
		// --- Arrange ---
		mockRepo := NewMockBlocklistRepo()
		var stored []string
		mockRepo.AddFunc = func(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error) {
			stored = emails
			return len(emails), nil
		}
		uc := usecase.NewBlocklistUseCase(mockRepo, testLogger)

		// --- Act ---
		added, err := uc.Block(ctx, []string{
			"Ivanov@Example.RU",
			"ivanov@example.ru", // duplicate after canonicalization
			"not an address",
			"petrov@example.com",
		}, "manual")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if added != 2 {
			t.Errorf("added = %d, want 2", added)
		}
		want := []string{"ivanov@example.ru", "petrov@example.com"}
		if !reflect.DeepEqual(stored, want) {
			t.Errorf("stored = %v, want %v", stored, want)
		}
	})

	t.Run("Block with only junk input never touches the repository", func(t *testing.T) {
		// --- Arrange ---
		mockRepo := NewMockBlocklistRepo()
		called := false
		mockRepo.AddFunc = func(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error) {
			called = true
			return 0, nil
		}
		uc := usecase.NewBlocklistUseCase(mockRepo, testLogger)

		// --- Act ---
		added, err := uc.Block(ctx, []string{"", "garbage", "@@"}, "manual")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if added != 0 {
			t.Errorf("added = %d, want 0", added)
		}
		if called {
			t.Error("repository should not be called for empty input")
		}
	})

	t.Run("IsBlocked canonicalizes before the lookup", func(t *testing.T) {
		// --- Arrange ---
		mockRepo := NewMockBlocklistRepo()
		var asked string
		mockRepo.ContainsFunc = func(ctx context.Context, tx repository.Tx, email string) (bool, error) {
			asked = email
			return true, nil
		}
		uc := usecase.NewBlocklistUseCase(mockRepo, testLogger)

		// --- Act ---
		blocked, err := uc.IsBlocked(ctx, "  Ivanov@Example.RU ")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if !blocked {
			t.Error("expected blocked")
		}
		if asked != "ivanov@example.ru" {
			t.Errorf("lookup used %q, want canonical form", asked)
		}
	})
}
