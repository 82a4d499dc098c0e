package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ scheduler.Store = (*Store)(nil)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestInsertFindRemove(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	runAt := time.Date(2024, time.July, 9, 15, 4, 5, 987654321, time.FixedZone("ART", -3*3600))

	rec, err := s.Insert(ctx, models.NewDeferredAction{
		HandlerName:    "send-message",
		RunAt:          runAt,
		GuildID:        "g1",
		DisplayCommand: "/utils schedule 1h hola",
		Args:           []string{"123", "hola, \"mundo\""},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	found, err := s.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rec, found)
	assert.True(t, found.RunAt.Equal(runAt.Truncate(time.Millisecond)))

	require.NoError(t, s.Remove(ctx, rec.ID))
	require.NoError(t, s.Remove(ctx, rec.ID))

	found, err = s.FindByID(ctx, rec.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestIDsAreNotReused(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, models.NewDeferredAction{HandlerName: "reminder", RunAt: time.Now(), GuildID: "g1"})
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, first.ID))

	second, err := s.Insert(ctx, models.NewDeferredAction{HandlerName: "reminder", RunAt: time.Now(), GuildID: "g1"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestListAllOrderedByRunAt(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	base := time.Now()

	for _, d := range []time.Duration{time.Hour, time.Minute, time.Second} {
		_, err := s.Insert(ctx, models.NewDeferredAction{HandlerName: "reminder", RunAt: base.Add(d), GuildID: "g1"})
		require.NoError(t, err)
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(1), all[2].ID)
	assert.Equal(t, []string{}, all[0].Args)
}

func TestRecordsSurviveReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, models.NewDeferredAction{HandlerName: "unban-job", RunAt: time.Now().Add(time.Hour), GuildID: "g1", Args: []string{"u1"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rec.ID, all[0].ID)
	assert.Equal(t, []string{"u1"}, all[0].Args)
}

func TestSchedulerRestoresFromSQLite(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Now())

	// Left behind by a previous process, already overdue
	_, err := s.Insert(ctx, models.NewDeferredAction{HandlerName: "reminder", RunAt: mock.Now().Add(-time.Second), GuildID: "g1", Args: []string{"u1", "hola"}})
	require.NoError(t, err)

	got := make(chan []string, 1)
	reg := scheduler.NewRegistry()
	reg.MustRegister("reminder", func(_ scheduler.ExecContext, args []string) error {
		got <- args
		return nil
	})
	sch := scheduler.New(s, reg, scheduler.Options{Clock: mock})
	defer sch.Stop()

	n, err := sch.RestoreAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	mock.Add(0)
	select {
	case args := <-got:
		assert.Equal(t, []string{"u1", "hola"}, args)
	case <-time.After(2 * time.Second):
		t.Fatal("overdue job never fired")
	}

	require.Eventually(t, func() bool {
		all, err := s.ListAll(ctx)
		return err == nil && len(all) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
