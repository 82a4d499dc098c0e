// Package cooldown rate-limits repeated command use per guild, command and user.
package cooldown

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
)

type key struct {
	guild   string
	command string
	user    string
}

type window struct {
	expiresAt time.Time
	timer     *clock.Timer
}

// Result is the outcome of TryAcquire
type Result struct {
	Allowed   bool
	Remaining time.Duration
}

// Tracker keeps the open cooldown windows. Expiry is decided by comparing
// expiresAt with the clock; the per-window timer only frees memory.
type Tracker struct {
	clock clock.Clock

	mu      sync.Mutex
	windows map[key]*window
}

// New creates a Tracker. A nil clock means the wall clock.
func New(clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{
		clock:   clk,
		windows: make(map[key]*window),
	}
}

// TryAcquire admits the call and opens a window of length d, or rejects it
// with the time left on the window that is already open. d <= 0 always admits
// and opens nothing.
func (t *Tracker) TryAcquire(guildID, command, userID string, d time.Duration) Result {
	if d <= 0 {
		return Result{Allowed: true}
	}

	k := key{guild: guildID, command: command, user: userID}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.windows[k]; ok {
		if w.expiresAt.After(now) {
			return Result{Remaining: w.expiresAt.Sub(now)}
		}
		// Logically expired, the cleanup timer has not run yet
		w.timer.Stop()
		delete(t.windows, k)
	}

	w := &window{expiresAt: now.Add(d)}
	w.timer = t.clock.AfterFunc(d, func() { t.expire(k, w) })
	t.windows[k] = w
	return Result{Allowed: true}
}

func (t *Tracker) expire(k key, w *window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// A newer window may have replaced this one
	if t.windows[k] == w {
		delete(t.windows, k)
	}
}

// Reset drops the window for one key, if any
func (t *Tracker) Reset(guildID, command, userID string) {
	k := key{guild: guildID, command: command, user: userID}

	t.mu.Lock()
	w, ok := t.windows[k]
	if ok {
		w.timer.Stop()
		delete(t.windows, k)
	}
	t.mu.Unlock()

	if ok {
		logger.With(logger.Fields{"guild": guildID, "command": command, "user": userID}).Debug("Cooldown reiniciado", "Cooldown")
	}
}

// Len returns the number of windows held in memory, expired or not
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.windows)
}

// Stop disarms every cleanup timer and forgets all windows
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, w := range t.windows {
		w.timer.Stop()
		delete(t.windows, k)
	}
}

var spanishMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "un momento %s", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 segundo %s", DivBy: 1},
	{D: time.Minute, Format: "%d segundos %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minuto %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutos %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hora %s", DivBy: 1},
	{D: humanize.Day, Format: "%d horas %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 día %s", DivBy: 1},
	{D: humanize.Week, Format: "%d días %s", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "1 semana %s", DivBy: 1},
	{D: humanize.Month, Format: "%d semanas %s", DivBy: humanize.Week},
	{D: time.Duration(math.MaxInt64), Format: "%d meses %s", DivBy: humanize.Month},
}

// FormatDuration renders d for users, rounding up to the next whole second
// so "3.2s left" never reads as "3 segundos".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "un momento"
	}
	d = (d + time.Second - 1).Truncate(time.Second)
	var base time.Time
	return strings.TrimSpace(humanize.CustomRelTime(base, base.Add(d), "", "", spanishMagnitudes))
}

// RemainingText is the wait time shown in a rejection reply
func (r Result) RemainingText() string {
	return FormatDuration(r.Remaining)
}
