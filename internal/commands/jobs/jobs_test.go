package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
)

func handles(n int, now time.Time) []*scheduler.Handle {
	out := make([]*scheduler.Handle, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &scheduler.Handle{Action: &models.DeferredAction{
			ID:          int64(i),
			HandlerName: "reminder",
			RunAt:       now.Add(time.Duration(i) * time.Minute),
			GuildID:     "g1",
		}})
	}
	return out
}

func TestBuildListEmbedEmpty(t *testing.T) {
	embed := buildListEmbed(nil, time.Now())
	if !strings.Contains(embed.Description, "No hay acciones") {
		t.Errorf("Description = %q", embed.Description)
	}
	if embed.Footer != nil {
		t.Error("empty list should have no footer")
	}
}

func TestBuildListEmbedTruncates(t *testing.T) {
	now := time.Now()
	embed := buildListEmbed(handles(20, now), now)

	if got := strings.Count(embed.Description, "\n") + 1; got != maxListed {
		t.Errorf("lines = %d, want %d", got, maxListed)
	}
	if embed.Footer == nil || embed.Footer.Text != "Mostrando 15 de 20 pendientes" {
		t.Errorf("Footer = %+v", embed.Footer)
	}
}

func TestBuildChoices(t *testing.T) {
	now := time.Now()
	choices := buildChoices(handles(30, now), now)

	if len(choices) != maxChoices {
		t.Fatalf("len(choices) = %d, want %d", len(choices), maxChoices)
	}
	if choices[0].Value != int64(1) {
		t.Errorf("choices[0].Value = %v, want 1", choices[0].Value)
	}
	if !strings.HasPrefix(choices[0].Name, "#1 reminder") {
		t.Errorf("choices[0].Name = %q", choices[0].Name)
	}
}
