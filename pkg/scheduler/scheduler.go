// Package scheduler runs persisted deferred actions (unmute, unban, reminders,
// scheduled messages) on in-process timers that are re-armed after a restart.
//
// Each record is Pending until exactly one of two terminal transitions wins:
// Fired (handler invoked, record removed) or Canceled (timer stopped, record
// removed). Both transitions start by deleting the record from the in-memory
// registry under the scheduler lock; whoever deletes it first wins and the
// other side becomes a no-op.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/benbjohnson/clock"
)

const logPrefix = "Scheduler"

// Handle is a live Pending job.
type Handle struct {
	Action *models.DeferredAction
	timer  *clock.Timer
}

// ID returns the persisted record id
func (h *Handle) ID() int64 {
	return h.Action.ID
}

// Observer is notified about lifecycle transitions. Calls happen outside the
// scheduler lock and must not block for long.
type Observer interface {
	OnScheduled(a *models.DeferredAction)
	OnFired(a *models.DeferredAction, err error)
	OnCanceled(a *models.DeferredAction)
}

type nopObserver struct{}

func (nopObserver) OnScheduled(*models.DeferredAction)    {}
func (nopObserver) OnFired(*models.DeferredAction, error) {}
func (nopObserver) OnCanceled(*models.DeferredAction)     {}

// Options configures a Scheduler
type Options struct {
	// Clock drives timers; defaults to the wall clock.
	Clock clock.Clock
	// Observer receives lifecycle events; optional.
	Observer Observer
	// StoreTimeout bounds every storage call made from a timer callback.
	StoreTimeout time.Duration
	// HandlerTimeout bounds the context handed to handlers.
	HandlerTimeout time.Duration
}

// Scheduler owns the timers for every Pending deferred action
type Scheduler struct {
	store    Store
	registry *Registry
	clock    clock.Clock
	observer Observer

	storeTimeout   time.Duration
	handlerTimeout time.Duration

	mu       sync.Mutex
	pending  map[int64]*Handle
	stopped  bool
	inFlight sync.WaitGroup
}

// New builds a Scheduler and seals the registry
func New(store Store, registry *Registry, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 10 * time.Second
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	registry.Seal()

	return &Scheduler{
		store:          store,
		registry:       registry,
		clock:          opts.Clock,
		observer:       opts.Observer,
		storeTimeout:   opts.StoreTimeout,
		handlerTimeout: opts.HandlerTimeout,
		pending:        make(map[int64]*Handle),
	}
}

// Schedule persists a new deferred action and arms its timer.
// A zero delay fires on the next timer tick, never inside this call.
func (s *Scheduler) Schedule(ctx context.Context, handlerName string, delay time.Duration, guildID, displayCommand string, args ...string) (*Handle, error) {
	if delay < 0 {
		return nil, errors.Invalidf("delay %s is negative", delay)
	}
	if handlerName == "" {
		return nil, errors.Invalidf("handler name is empty")
	}
	if _, ok := s.registry.Lookup(handlerName); !ok {
		return nil, errors.Invalidf("unknown handler %q", handlerName)
	}
	if guildID == "" {
		return nil, errors.Invalidf("guild id is empty")
	}

	runAt := s.clock.Now().Add(delay).UTC()
	action, err := s.store.Insert(ctx, models.NewDeferredAction{
		HandlerName:    handlerName,
		RunAt:          runAt,
		GuildID:        guildID,
		DisplayCommand: displayCommand,
		Args:           args,
	})
	if err != nil {
		if !errors.IsStorage(err) {
			err = errors.NewStorageError("insert", err)
		}
		logger.With(logger.Fields{"handler": handlerName, "guild": guildID}).Error(fmt.Sprintf("No se pudo guardar el trabajo: %v", err), logPrefix)
		return nil, err
	}

	h, armed := s.arm(action, delay)
	if !armed {
		if h != nil {
			return h, nil
		}
		// Stopped between insert and arm: the record stays for the next RestoreAll
		logger.With(logger.Fields{"job": action.ID}).Warn("Scheduler detenido, el trabajo se restaurará en el próximo arranque", logPrefix)
		return &Handle{Action: action}, nil
	}

	logger.With(logger.Fields{"job": action.ID, "handler": handlerName, "guild": guildID}).Debug(fmt.Sprintf("Trabajo programado para %s", runAt.Format(time.RFC3339)), logPrefix)
	s.observer.OnScheduled(action)
	return h, nil
}

// arm registers the in-memory handle and its timer. It is idempotent per id:
// a record that is already Pending keeps its existing timer.
func (s *Scheduler) arm(action *models.DeferredAction, delay time.Duration) (*Handle, bool) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, false
	}
	if existing, ok := s.pending[action.ID]; ok {
		return existing, false
	}

	id := action.ID
	h := &Handle{Action: action}
	h.timer = s.clock.AfterFunc(delay, func() { s.fire(id) })
	s.pending[id] = h
	return h, true
}

// take performs the Pending -> Canceled transition. Only one caller per id gets the handle.
func (s *Scheduler) take(id int64) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.pending[id]
	if !ok {
		return nil, false
	}
	delete(s.pending, id)
	return h, true
}

func (s *Scheduler) fire(id int64) {
	s.mu.Lock()
	h, ok := s.pending[id]
	if !ok {
		// Canceled first, or the scheduler was stopped
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.inFlight.Add(1)
	s.mu.Unlock()
	defer s.inFlight.Done()

	action := h.Action
	log := logger.With(logger.Fields{"job": action.ID, "handler": action.HandlerName, "guild": action.GuildID})

	runErr := s.invoke(action)
	if runErr != nil {
		errors.CountError()
		log.Error(runErr.Error(), logPrefix)
	} else {
		log.Debug("Trabajo ejecutado", logPrefix)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	if err := s.removeFired(ctx, action.ID); err != nil {
		// Never re-arm here: that could run the handler twice.
		log.Error(fmt.Sprintf("No se pudo eliminar el trabajo tras ejecutarlo: %v", err), logPrefix)
	}

	s.observer.OnFired(action, runErr)
}

func (s *Scheduler) removeFired(ctx context.Context, id int64) error {
	if fr, ok := s.store.(FiredRemover); ok {
		return fr.RemoveFired(ctx, id)
	}
	return s.store.Remove(ctx, id)
}

// invoke resolves and runs the handler, turning panics into HandlerExecutionError
func (s *Scheduler) invoke(action *models.DeferredAction) (err error) {
	fn, ok := s.registry.Lookup(action.HandlerName)
	if !ok {
		return &errors.UnknownHandlerError{Name: action.HandlerName}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &errors.HandlerExecutionError{Name: action.HandlerName, ActionID: action.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	args := append([]string(nil), action.Args...)
	if runErr := fn(ExecContext{Context: ctx, GuildID: action.GuildID, ActionID: action.ID, HandlerName: action.HandlerName}, args); runErr != nil {
		return &errors.HandlerExecutionError{Name: action.HandlerName, ActionID: action.ID, Err: runErr}
	}
	return nil
}

// Cancel stops a Pending job and removes its record. Canceling a job that
// already fired or was canceled is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, h *Handle) error {
	if h == nil || h.Action == nil {
		return nil
	}
	_, err := s.CancelByID(ctx, h.Action.ID)
	return err
}

// CancelByID cancels by record id. It reports whether a Pending job was
// stopped. The stored record is removed even when nothing was Pending in
// memory, so a record that has not been restored yet can still be canceled.
func (s *Scheduler) CancelByID(ctx context.Context, id int64) (bool, error) {
	h, ok := s.take(id)
	if ok && h.timer != nil {
		h.timer.Stop()
	}

	if err := s.store.Remove(ctx, id); err != nil {
		if !errors.IsStorage(err) {
			err = errors.NewStorageError("remove", err)
		}
		logger.With(logger.Fields{"job": id}).Error(fmt.Sprintf("No se pudo eliminar el trabajo cancelado: %v", err), logPrefix)
		return ok, err
	}

	if ok {
		logger.With(logger.Fields{"job": id, "handler": h.Action.HandlerName}).Debug("Trabajo cancelado", logPrefix)
		s.observer.OnCanceled(h.Action)
	}
	return ok, nil
}

// Get returns the Pending handle for id
func (s *Scheduler) Get(id int64) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.pending[id]
	return h, ok
}

// All returns a snapshot of every Pending handle by id
func (s *Scheduler) All() map[int64]*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]*Handle, len(s.pending))
	for id, h := range s.pending {
		out[id] = h
	}
	return out
}

// Find returns Pending handles matching pred, ordered by RunAt then id
func (s *Scheduler) Find(pred func(a *models.DeferredAction) bool) []*Handle {
	s.mu.Lock()
	out := make([]*Handle, 0)
	for _, h := range s.pending {
		if pred == nil || pred(h.Action) {
			out = append(out, h)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Action, out[j].Action
		if a.RunAt.Equal(b.RunAt) {
			return a.ID < b.ID
		}
		return a.RunAt.Before(b.RunAt)
	})
	return out
}

// ListByGuild returns the Pending handles of one guild
func (s *Scheduler) ListByGuild(guildID string) []*Handle {
	return s.Find(func(a *models.DeferredAction) bool { return a.GuildID == guildID })
}

// Len returns the number of Pending jobs
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RestoreAll arms a timer for every stored record. Records already due fire
// on the next tick. It must run once at boot before new jobs are accepted;
// calling it again only arms records that are not Pending yet.
func (s *Scheduler) RestoreAll(ctx context.Context) (int, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		if !errors.IsStorage(err) {
			err = errors.NewStorageError("list", err)
		}
		logger.Error(fmt.Sprintf("No se pudieron cargar los trabajos pendientes: %v", err), logPrefix)
		return 0, err
	}

	now := s.clock.Now()
	restored, overdue := 0, 0
	for _, rec := range records {
		delay := rec.RunAt.Sub(now)
		if delay < 0 {
			delay = 0
			overdue++
		}
		if _, armed := s.arm(rec, delay); armed {
			restored++
		}
	}

	logger.System(fmt.Sprintf("%d trabajos restaurados (%d atrasados)", restored, overdue), logPrefix)
	return restored, nil
}

// Stop disarms every timer without touching storage. Stored records are
// picked up again by RestoreAll on the next start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, h := range s.pending {
		if h.timer != nil {
			h.timer.Stop()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.inFlight.Wait()
	logger.System("Scheduler detenido", logPrefix)
}
