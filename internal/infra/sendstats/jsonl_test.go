package sendstats

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLog(t *testing.T) {
	newLog := func(t *testing.T) *Log {
		t.Helper()
		return Open(filepath.Join(t.TempDir(), "nested", "send_stats.jsonl"))
	}

	t.Run("LastSends on a missing file yields an empty map", func(t *testing.T) {
		l := newLog(t)

		got, err := l.LastSends()

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty map, got %v", got)
		}
	})

	t.Run("Append creates the directory and LastSends keeps the newest", func(t *testing.T) {
		// --- Arrange ---
		l := newLog(t)
		older := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
		newer := time.Date(2026, 6, 2, 14, 30, 0, 0, time.UTC)

		// --- Act ---
		for _, rec := range []Record{
			{Email: "a@example.ru", SentAt: newer, Group: "invest"},
			{Email: "a@example.ru", SentAt: older},
			{Email: "b@example.ru", SentAt: older},
		} {
			if err := l.Append(rec); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		got, err := l.LastSends()

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if !got["a@example.ru"].Equal(newer) {
			t.Errorf("a = %v, want %v", got["a@example.ru"], newer)
		}
		if !got["b@example.ru"].Equal(older) {
			t.Errorf("b = %v, want %v", got["b@example.ru"], older)
		}
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		// --- Arrange ---
		l := newLog(t)
		if err := l.Append(Record{Email: "ok@example.ru", SentAt: time.Now()}); err != nil {
			t.Fatalf("append: %v", err)
		}
		f, err := os.OpenFile(l.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		f.WriteString("{garbage\nnot json at all\n")
		f.Close()

		// --- Act ---
		got, err := l.LastSends()

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected only the valid record, got %v", got)
		}
	})

	t.Run("Prune drops old lines and reports the count", func(t *testing.T) {
		// --- Arrange ---
		l := newLog(t)
		cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for _, rec := range []Record{
			{Email: "old@example.ru", SentAt: cutoff.Add(-time.Hour)},
			{Email: "kept@example.ru", SentAt: cutoff.Add(time.Hour)},
			{Email: "edge@example.ru", SentAt: cutoff}, // exactly at the cutoff stays
		} {
			if err := l.Append(rec); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		// --- Act ---
		dropped, err := l.Prune(cutoff)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if dropped != 1 {
			t.Errorf("dropped = %d, want 1", dropped)
		}
		got, err := l.LastSends()
		if err != nil {
			t.Fatalf("last sends: %v", err)
		}
		if _, ok := got["old@example.ru"]; ok {
			t.Error("old record should be gone")
		}
		if len(got) != 2 {
			t.Errorf("expected 2 surviving records, got %v", got)
		}
	})

	t.Run("Prune on a missing file is a no-op", func(t *testing.T) {
		l := newLog(t)

		dropped, err := l.Prune(time.Now())

		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if dropped != 0 {
			t.Errorf("dropped = %d, want 0", dropped)
		}
	})
}
