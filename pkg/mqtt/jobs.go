package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/google/uuid"
)

// JobsTopic is the prefix of job lifecycle events: pancy/jobs/<type>
const JobsTopic = "pancy/jobs/"

// Job event types
const (
	EventScheduled = "scheduled"
	EventFired     = "fired"
	EventCanceled  = "canceled"
)

// JobEvent is published on every lifecycle transition
type JobEvent struct {
	EventID string                 `json:"eventId"`
	Type    string                 `json:"type"`
	Job     *models.DeferredAction `json:"job"`
	Error   string                 `json:"error,omitempty"`
	At      time.Time              `json:"at"`
}

// Publisher is the part of the communicator the job events need
type Publisher interface {
	Publish(topic string, payload interface{}) error
	IsConnected() bool
}

// JobEvents is a scheduler.Observer that publishes to MQTT from its own
// goroutine so timer callbacks never wait on the broker. Events are dropped
// while the broker is unreachable or the buffer is full.
type JobEvents struct {
	pub    Publisher
	now    func() time.Time
	events chan JobEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ scheduler.Observer = (*JobEvents)(nil)

// NewJobEvents starts the publishing goroutine
func NewJobEvents(pub Publisher, buffer int) *JobEvents {
	if buffer <= 0 {
		buffer = 256
	}
	je := &JobEvents{
		pub:    pub,
		now:    time.Now,
		events: make(chan JobEvent, buffer),
		done:   make(chan struct{}),
	}
	go je.run()
	return je
}

func (je *JobEvents) run() {
	defer close(je.done)
	for ev := range je.events {
		if !je.pub.IsConnected() {
			continue
		}
		if err := je.pub.Publish(JobsTopic+ev.Type, ev); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo publicar el evento %s del trabajo %d: %v", ev.Type, ev.Job.ID, err), "MQTT")
		}
	}
}

func (je *JobEvents) emit(kind string, a *models.DeferredAction, err error) {
	ev := JobEvent{
		EventID: uuid.NewString(),
		Type:    kind,
		Job:     a,
		At:      je.now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	je.mu.RLock()
	defer je.mu.RUnlock()
	if je.closed {
		return
	}
	select {
	case je.events <- ev:
	default:
		logger.Debug(fmt.Sprintf("Evento %s descartado: cola llena", kind), "MQTT")
	}
}

// OnScheduled implements scheduler.Observer
func (je *JobEvents) OnScheduled(a *models.DeferredAction) { je.emit(EventScheduled, a, nil) }

// OnFired implements scheduler.Observer
func (je *JobEvents) OnFired(a *models.DeferredAction, err error) { je.emit(EventFired, a, err) }

// OnCanceled implements scheduler.Observer
func (je *JobEvents) OnCanceled(a *models.DeferredAction) { je.emit(EventCanceled, a, nil) }

// Close flushes queued events and stops the goroutine. Later events are ignored.
func (je *JobEvents) Close() {
	je.mu.Lock()
	if !je.closed {
		je.closed = true
		close(je.events)
	}
	je.mu.Unlock()
	<-je.done
}

// ListJobsHandler answers jobs.list requests. An optional "guild" field
// narrows the result to one guild.
func ListJobsHandler(sch *scheduler.Scheduler) RequestHandler {
	return func(payload map[string]interface{}) (interface{}, error) {
		var handles []*scheduler.Handle
		switch guild := payload["guild"].(type) {
		case nil:
			handles = sch.Find(nil)
		case string:
			if guild == "" {
				return nil, fmt.Errorf("guild vacío")
			}
			handles = sch.ListByGuild(guild)
		default:
			return nil, fmt.Errorf("guild debe ser un texto")
		}

		out := make([]*models.DeferredAction, 0, len(handles))
		for _, h := range handles {
			out = append(out, h.Action)
		}
		return out, nil
	}
}
