package smtp

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	domainDelayStep  = 1 * time.Second
	domainDelayMax   = 30 * time.Second
	domainDelayDecay = 1 * time.Second
)

// Throttle enforces sliding per-minute and per-hour send ceilings plus an
// adaptive per-domain delay that grows on failures and shrinks on success.
type Throttle struct {
	mu sync.Mutex

	maxPerMinute int
	maxPerHour   int
	minute       []time.Time
	hour         []time.Time

	domainDelay map[string]time.Duration

	jitterMin time.Duration
	jitterMax time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewThrottle(maxPerMinute, maxPerHour int, jitterMin, jitterMax time.Duration) *Throttle {
	if jitterMax < jitterMin {
		jitterMax = jitterMin
	}
	return &Throttle{
		maxPerMinute: maxPerMinute,
		maxPerHour:   maxPerHour,
		domainDelay:  make(map[string]time.Duration),
		jitterMin:    jitterMin,
		jitterMax:    jitterMax,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

// Wait blocks until a send slot for the domain is available, then claims it.
func (t *Throttle) Wait(ctx context.Context, domain string) error {
	if err := t.sleep(ctx, t.domainWait(domain)); err != nil {
		return err
	}
	for {
		wait, ok := t.tryClaim()
		if ok {
			break
		}
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return t.sleep(ctx, t.jitter())
}

// tryClaim records a send timestamp if both windows have room, otherwise
// returns how long to wait before the earliest slot frees up.
func (t *Throttle) tryClaim() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.minute = trimWindow(t.minute, now.Add(-time.Minute))
	t.hour = trimWindow(t.hour, now.Add(-time.Hour))

	var waits []time.Duration
	if t.maxPerMinute > 0 && len(t.minute) >= t.maxPerMinute {
		waits = append(waits, time.Minute-now.Sub(t.minute[0]))
	}
	if t.maxPerHour > 0 && len(t.hour) >= t.maxPerHour {
		waits = append(waits, time.Hour-now.Sub(t.hour[0]))
	}
	if len(waits) > 0 {
		wait := waits[0]
		for _, w := range waits[1:] {
			if w < wait {
				wait = w
			}
		}
		if wait < 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		return wait, false
	}

	if t.maxPerMinute > 0 {
		t.minute = append(t.minute, now)
	}
	if t.maxPerHour > 0 {
		t.hour = append(t.hour, now)
	}
	return 0, true
}

func trimWindow(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func (t *Throttle) jitter() time.Duration {
	if t.jitterMax <= 0 {
		return 0
	}
	span := t.jitterMax - t.jitterMin
	if span <= 0 {
		return t.jitterMin
	}
	return t.jitterMin + time.Duration(rand.Int63n(int64(span)))
}

func (t *Throttle) domainWait(domain string) time.Duration {
	if domain == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.domainDelay[domain]
}

// NoteFailure grows the adaptive delay for a domain after a soft failure.
func (t *Throttle) NoteFailure(domain string) {
	if domain == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.domainDelay[domain] + domainDelayStep
	if d > domainDelayMax {
		d = domainDelayMax
	}
	t.domainDelay[domain] = d
}

// NoteSuccess decays the adaptive delay for a domain.
func (t *Throttle) NoteSuccess(domain string) {
	if domain == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.domainDelay[domain] - domainDelayDecay
	if d <= 0 {
		delete(t.domainDelay, domain)
		return
	}
	t.domainDelay[domain] = d
}
