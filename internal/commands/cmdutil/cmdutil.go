// Package cmdutil holds helpers shared by the command packages.
package cmdutil

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
)

// Larger units than time.ParseDuration knows about
var longUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration reads durations like "30m", "1h30m", "7d" or "2w3d12h".
// Plain numbers are minutes.
func ParseDuration(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("duración vacía")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("la duración debe ser mayor que cero")
		}
		return scale(n, time.Minute, raw)
	}

	var total time.Duration
	rest := s
	for {
		i := strings.IndexAny(rest, "dw")
		if i < 0 {
			break
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duración inválida %q", raw)
		}
		d, err := scale(n, longUnits[rest[i]], raw)
		if err != nil {
			return 0, err
		}
		if total, err = add(total, d, raw); err != nil {
			return 0, err
		}
		rest = rest[i+1:]
	}

	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("duración inválida %q", raw)
		}
		if total, err = add(total, d, raw); err != nil {
			return 0, err
		}
	}

	if total <= 0 {
		return 0, fmt.Errorf("la duración debe ser mayor que cero")
	}
	return total, nil
}

// scale returns n*unit, or an error when the product does not fit in a Duration
func scale(n int, unit time.Duration, raw string) (time.Duration, error) {
	if int64(n) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("duración demasiado larga %q", raw)
	}
	return time.Duration(n) * unit, nil
}

func add(total, d time.Duration, raw string) (time.Duration, error) {
	if d > math.MaxInt64-total {
		return 0, fmt.Errorf("duración demasiado larga %q", raw)
	}
	return total + d, nil
}

// ScheduleErrorMessage turns a Schedule error into the reply shown to users.
// Bad input and storage failures read differently.
func ScheduleErrorMessage(err error) string {
	if errors.IsInvalidSchedule(err) {
		return "❌ Datos inválidos: " + err.Error()
	}
	return "❌ No se pudo programar la acción. Inténtalo de nuevo más tarde."
}

// CancelPendingFor cancels the pending jobs of handlerName that target userID
// in guildID, returning how many were canceled.
func CancelPendingFor(ctx context.Context, sch *scheduler.Scheduler, guildID, handlerName, userID string) (int, error) {
	matches := sch.Find(func(a *models.DeferredAction) bool {
		if a.GuildID != guildID || a.HandlerName != handlerName {
			return false
		}
		target, ok := jobs.TargetUser(a.HandlerName, a.Args)
		return ok && target == userID
	})

	canceled := 0
	for _, h := range matches {
		ok, err := sch.CancelByID(ctx, h.ID())
		if err != nil {
			return canceled, err
		}
		if ok {
			canceled++
		}
	}
	return canceled, nil
}

// JobLine renders one pending job for listings
func JobLine(a *models.DeferredAction, now time.Time) string {
	when := fmt.Sprintf("<t:%d:R>", a.RunAt.Unix())
	left := cooldown.FormatDuration(a.Remaining(now))
	cmd := a.DisplayCommand
	if cmd == "" {
		cmd = a.HandlerName
	}
	return fmt.Sprintf("`#%d` **%s** · %s (en %s) · `%s`", a.ID, a.HandlerName, when, left, truncate(cmd, 60))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
