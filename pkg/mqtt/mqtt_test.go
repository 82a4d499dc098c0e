package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	events    []JobEvent
}

func (f *fakePublisher) Publish(topic string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	if ev, ok := payload.(JobEvent); ok {
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func TestJobEventsPublishesLifecycle(t *testing.T) {
	pub := &fakePublisher{connected: true}
	je := NewJobEvents(pub, 8)

	mock := clock.NewMock()
	reg := scheduler.NewRegistry()
	reg.MustRegister("reminder", func(scheduler.ExecContext, []string) error { return nil })
	reg.MustRegister("unban-job", func(scheduler.ExecContext, []string) error { return errors.New("boom") })
	sch := scheduler.New(scheduler.NewMemoryStore(), reg, scheduler.Options{Clock: mock, Observer: je})

	ctx := context.Background()
	keep, err := sch.Schedule(ctx, "reminder", time.Hour, "g1", "/utils remind 1h", "u1", "c1", "hola")
	require.NoError(t, err)
	_, err = sch.Schedule(ctx, "unban-job", time.Minute, "g1", "/mod ban u2 1m", "u2")
	require.NoError(t, err)
	require.NoError(t, sch.Cancel(ctx, keep))

	mock.Add(time.Minute)
	require.Eventually(t, func() bool { return sch.Len() == 0 }, time.Second, 5*time.Millisecond)

	sch.Stop()
	je.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 4)
	assert.Equal(t, []string{
		"pancy/jobs/scheduled", "pancy/jobs/scheduled", "pancy/jobs/canceled", "pancy/jobs/fired",
	}, pub.topics)

	fired := pub.events[3]
	assert.Equal(t, "unban-job", fired.Job.HandlerName)
	assert.Contains(t, fired.Error, "boom")
	assert.NotEmpty(t, fired.EventID)
	assert.NotEqual(t, pub.events[0].EventID, pub.events[1].EventID)
}

func TestJobEventsDropsWhileDisconnected(t *testing.T) {
	pub := &fakePublisher{}
	je := NewJobEvents(pub, 1)

	a := &models.DeferredAction{ID: 1, HandlerName: "reminder"}
	je.OnScheduled(a)
	je.OnCanceled(a)
	je.Close()

	// Emits after Close are ignored
	je.OnFired(a, nil)

	assert.Empty(t, pub.topics)
}

func TestHandleRequest(t *testing.T) {
	raw := []byte(`{"correlationId":"abc","payload":{"guild":"g1"}}`)

	var seen map[string]interface{}
	topic, resp, err := handleRequest("pancy/request/jobs.list", raw, func(p map[string]interface{}) (interface{}, error) {
		seen = p
		return []string{"ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pancy/response/jobs.list/abc", topic)
	assert.Equal(t, "abc", resp.CorrelationID)
	assert.Equal(t, "g1", seen["guild"])
	assert.Equal(t, "jobs.list", seen["_topic"])

	_, resp, err = handleRequest("pancy/request/jobs.list", []byte(`{"correlationId":"x"}`), func(map[string]interface{}) (interface{}, error) {
		return nil, errors.New("nope")
	})
	require.NoError(t, err)
	assert.Equal(t, "nope", resp.Error)

	_, _, err = handleRequest("pancy/request/jobs.list", []byte("{"), nil)
	assert.Error(t, err)
}

func TestListJobsHandler(t *testing.T) {
	reg := scheduler.NewRegistry()
	reg.MustRegister("reminder", func(scheduler.ExecContext, []string) error { return nil })
	sch := scheduler.New(scheduler.NewMemoryStore(), reg, scheduler.Options{Clock: clock.NewMock()})
	t.Cleanup(sch.Stop)

	ctx := context.Background()
	for _, g := range []string{"g1", "g1", "g2"} {
		_, err := sch.Schedule(ctx, "reminder", time.Hour, g, "x", "u", "c", "t")
		require.NoError(t, err)
	}

	handler := ListJobsHandler(sch)

	all, err := handler(map[string]interface{}{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	g1, err := handler(map[string]interface{}{"guild": "g1"})
	require.NoError(t, err)
	assert.Len(t, g1, 2)

	data, err := json.Marshal(g1)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"guildId":"g1"`)

	_, err = handler(map[string]interface{}{"guild": 5.0})
	assert.Error(t, err)
	_, err = handler(map[string]interface{}{"guild": ""})
	assert.Error(t, err)
}
