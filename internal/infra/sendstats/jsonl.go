// Package sendstats keeps a flat append-only JSONL journal of outgoing
// sends. It survives database outages and lets the cooldown check merge
// its view with the send_history table.
package sendstats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one line of the journal.
type Record struct {
	Email  string    `json:"email"`
	SentAt time.Time `json:"ts"`
	Group  string    `json:"group,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// Log is a concurrency-safe append/scan handle over one JSONL file.
type Log struct {
	mu   sync.Mutex
	path string
}

func Open(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes one record. The parent directory is created on first use.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("sendstats: mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("sendstats: open: %w", err)
	}
	defer f.Close()

	rec.SentAt = rec.SentAt.UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("sendstats: write: %w", err)
	}
	return nil
}

// LastSends scans the journal and returns the most recent send time per
// address. Malformed lines are skipped, a missing file yields an empty map.
func (l *Log) LastSends() (map[string]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]time.Time{}, nil
		}
		return nil, fmt.Errorf("sendstats: open: %w", err)
	}
	defer f.Close()

	out := make(map[string]time.Time)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil || rec.Email == "" {
			continue
		}
		ts := rec.SentAt.UTC()
		if prev, ok := out[rec.Email]; !ok || ts.After(prev) {
			out[rec.Email] = ts
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sendstats: scan: %w", err)
	}
	return out, nil
}

// Prune rewrites the journal keeping only records at or after cutoff.
// Returns the number of dropped lines.
func (l *Log) Prune(cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("sendstats: open: %w", err)
	}

	tmp := l.path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("sendstats: open tmp: %w", err)
	}

	dropped := 0
	w := bufio.NewWriter(out)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil || rec.SentAt.UTC().Before(cutoff.UTC()) {
			dropped++
			continue
		}
		w.Write(sc.Bytes())
		w.WriteByte('\n')
	}
	f.Close()
	if err := sc.Err(); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("sendstats: scan: %w", err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return 0, fmt.Errorf("sendstats: rename: %w", err)
	}
	return dropped, nil
}
