package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Store is the persistence boundary for deferred actions.
//
// Remove must be idempotent: removing an id that does not exist is not an error.
// FindByID returns (nil, nil) when the id is absent.
// Backend failures are reported as *errors.StorageError.
type Store interface {
	Insert(ctx context.Context, a models.NewDeferredAction) (*models.DeferredAction, error)
	Remove(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*models.DeferredAction, error)
	FindByID(ctx context.Context, id int64) (*models.DeferredAction, error)
}

// FiredRemover is implemented by stores that delete fired records through a
// separate path, for example one that defers the delete while offline.
// Cancels always go through Store.Remove.
type FiredRemover interface {
	RemoveFired(ctx context.Context, id int64) error
}

// MemoryStore keeps records in process memory. It does not survive restarts and
// is meant for tests and for running the bot without a database.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int64]*models.DeferredAction
	lastID  int64
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]*models.DeferredAction),
		now:     time.Now,
	}
}

func cloneAction(a *models.DeferredAction) *models.DeferredAction {
	c := *a
	c.Args = append([]string(nil), a.Args...)
	return &c
}

// Insert stores a new record with the next id
func (m *MemoryStore) Insert(_ context.Context, a models.NewDeferredAction) (*models.DeferredAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	rec := &models.DeferredAction{
		ID:             m.lastID,
		HandlerName:    a.HandlerName,
		RunAt:          a.RunAt.UTC(),
		GuildID:        a.GuildID,
		DisplayCommand: a.DisplayCommand,
		Args:           append([]string(nil), a.Args...),
		CreatedAt:      m.now().UTC(),
	}
	m.records[rec.ID] = rec
	return cloneAction(rec), nil
}

// Put stores a fully-formed record as-is. Used to seed state that an earlier
// process left behind.
func (m *MemoryStore) Put(a *models.DeferredAction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[a.ID] = cloneAction(a)
	if a.ID > m.lastID {
		m.lastID = a.ID
	}
}

// Remove deletes a record; unknown ids are ignored
func (m *MemoryStore) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// ListAll returns every stored record
func (m *MemoryStore) ListAll(_ context.Context) ([]*models.DeferredAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.DeferredAction, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, cloneAction(rec))
	}
	return out, nil
}

// FindByID returns the record or nil
func (m *MemoryStore) FindByID(_ context.Context, id int64) (*models.DeferredAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return cloneAction(rec), nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
