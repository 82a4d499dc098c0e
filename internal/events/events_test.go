package events

import (
	"context"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/benbjohnson/clock"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) (*scheduler.Scheduler, *scheduler.MemoryStore) {
	t.Helper()

	reg := scheduler.NewRegistry()
	for _, name := range []string{jobs.UnmuteJob, jobs.UnbanJob, jobs.Reminder} {
		reg.MustRegister(name, func(scheduler.ExecContext, []string) error { return nil })
	}
	store := scheduler.NewMemoryStore()
	sch := scheduler.New(store, reg, scheduler.Options{Clock: clock.NewMock()})
	t.Cleanup(sch.Stop)
	return sch, store
}

func schedule(t *testing.T, sch *scheduler.Scheduler, handler, guild string, args ...string) *scheduler.Handle {
	t.Helper()
	h, err := sch.Schedule(context.Background(), handler, time.Hour, guild, "test", args...)
	require.NoError(t, err)
	return h
}

func TestGuildDeleteCancelsGuildJobs(t *testing.T) {
	sch, store := newScheduler(t)
	schedule(t, sch, jobs.UnbanJob, "g1", "u1")
	schedule(t, sch, jobs.Reminder, "g1", "u2", "c1", "hola")
	other := schedule(t, sch, jobs.UnbanJob, "g2", "u1")

	handler := guildDeleteHandler(sch)

	// An outage keeps everything
	handler(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1", Unavailable: true}})
	assert.Equal(t, 3, sch.Len())

	handler(nil, &discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g1"}})
	assert.Equal(t, 1, sch.Len())
	assert.Equal(t, 1, store.Len())
	_, ok := sch.Get(other.ID())
	assert.True(t, ok)
}

func TestBanRemoveCancelsUnban(t *testing.T) {
	sch, store := newScheduler(t)
	unban := schedule(t, sch, jobs.UnbanJob, "g1", "u1")
	keep := schedule(t, sch, jobs.UnbanJob, "g1", "u2")

	banRemoveHandler(sch)(nil, &discordgo.GuildBanRemove{GuildID: "g1", User: &discordgo.User{ID: "u1"}})

	_, ok := sch.Get(unban.ID())
	assert.False(t, ok)
	_, ok = sch.Get(keep.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestMemberUpdateCancelsUnmuteWhenTimeoutLifted(t *testing.T) {
	sch, _ := newScheduler(t)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	handler := memberUpdateHandler(sch, func() time.Time { return now })

	unmute := schedule(t, sch, jobs.UnmuteJob, "g1", "u1")

	// Still timed out: nothing changes
	until := now.Add(time.Hour)
	handler(nil, &discordgo.GuildMemberUpdate{Member: &discordgo.Member{
		GuildID: "g1", User: &discordgo.User{ID: "u1"}, CommunicationDisabledUntil: &until,
	}})
	_, ok := sch.Get(unmute.ID())
	assert.True(t, ok)

	// Timeout removed by hand
	handler(nil, &discordgo.GuildMemberUpdate{Member: &discordgo.Member{
		GuildID: "g1", User: &discordgo.User{ID: "u1"},
	}})
	_, ok = sch.Get(unmute.ID())
	assert.False(t, ok)
}

func TestTimedOut(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	assert.False(t, timedOut(&discordgo.Member{}, now))
	assert.False(t, timedOut(&discordgo.Member{CommunicationDisabledUntil: &past}, now))
	assert.True(t, timedOut(&discordgo.Member{CommunicationDisabledUntil: &future}, now))
}
