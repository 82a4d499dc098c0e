package database

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DeferredCollection = "deferred_actions"
	CountersCollection = "counters"
)

type counter struct {
	Seq int64 `bson:"seq"`
}

// DeferredStore keeps deferred actions in MongoDB. Ids come from a counter
// document bumped with $inc, so they never repeat even after deletes.
type DeferredStore struct {
	db  *Database
	now func() time.Time
}

// NewDeferredStore builds the store on top of an existing connection
func NewDeferredStore(db *Database) *DeferredStore {
	return &DeferredStore{db: db, now: time.Now}
}

// EnsureIndexes creates the lookup indexes used by listing and restore
func (s *DeferredStore) EnsureIndexes(ctx context.Context) error {
	col := s.db.GetCollection(DeferredCollection)
	if col == nil {
		return errors.NewStorageError("indexes", ErrOffline)
	}

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "runAt", Value: 1}}},
		{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "runAt", Value: 1}}},
	})
	s.db.markOffline(err)
	return errors.NewStorageError("indexes", err)
}

func (s *DeferredStore) nextID(ctx context.Context) (int64, error) {
	col := s.db.GetCollection(CountersCollection)
	if col == nil {
		return 0, ErrOffline
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := col.FindOneAndUpdate(ctx,
		bson.M{"_id": DeferredCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, err
	}
	return c.Seq, nil
}

// Insert stores a new record. Inserts are never queued: a job the bot
// cannot persist is rejected so the caller can tell the user.
func (s *DeferredStore) Insert(ctx context.Context, a models.NewDeferredAction) (*models.DeferredAction, error) {
	if !s.db.Connected() {
		return nil, errors.NewStorageError("insert", ErrOffline)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		s.db.markOffline(err)
		return nil, errors.NewStorageError("insert", err)
	}

	rec := buildRecord(id, a, s.now())

	col := s.db.GetCollection(DeferredCollection)
	if col == nil {
		return nil, errors.NewStorageError("insert", ErrOffline)
	}
	if _, err := col.InsertOne(ctx, rec); err != nil {
		s.db.markOffline(err)
		return nil, errors.NewStorageError("insert", err)
	}
	return rec, nil
}

// Remove deletes a record by id. Removing a missing id is not an error.
// While offline it fails with a StorageError so a cancel is never reported
// as done while the record is still stored.
func (s *DeferredStore) Remove(ctx context.Context, id int64) error {
	col := s.db.GetCollection(DeferredCollection)
	if col == nil || !s.db.Connected() {
		return errors.NewStorageError("remove", ErrOffline)
	}

	if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		s.db.markOffline(err)
		return errors.NewStorageError("remove", err)
	}
	return nil
}

// RemoveFired deletes the record of a job that already ran. While offline
// the delete is queued and replayed on reconnect; the handler has run either way.
func (s *DeferredStore) RemoveFired(ctx context.Context, id int64) error {
	query := bson.M{"_id": id}

	col := s.db.GetCollection(DeferredCollection)
	if col == nil || !s.db.Connected() {
		s.queueDelete(query)
		return nil
	}

	if _, err := col.DeleteOne(ctx, query); err != nil {
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			s.db.markOffline(err)
			s.queueDelete(query)
			return nil
		}
		return errors.NewStorageError("remove", err)
	}
	return nil
}

func (s *DeferredStore) queueDelete(query bson.M) {
	logger.With(logger.Fields{"job": query["_id"]}).Warn("Base de datos offline, eliminación encolada", "DB")
	s.db.AddToWriteQueue(QueuedOperation{
		CollectionName: DeferredCollection,
		Query:          query,
		Operation:      OpDelete,
	})
}

// ListAll returns every stored record ordered by RunAt
func (s *DeferredStore) ListAll(ctx context.Context) ([]*models.DeferredAction, error) {
	col := s.db.GetCollection(DeferredCollection)
	if col == nil {
		return nil, errors.NewStorageError("list", ErrOffline)
	}

	cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "runAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		s.db.markOffline(err)
		return nil, errors.NewStorageError("list", err)
	}
	defer cursor.Close(ctx)

	out := make([]*models.DeferredAction, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	for _, rec := range out {
		normalize(rec)
	}
	return out, nil
}

// FindByID returns the record with id, or nil when there is none
func (s *DeferredStore) FindByID(ctx context.Context, id int64) (*models.DeferredAction, error) {
	col := s.db.GetCollection(DeferredCollection)
	if col == nil {
		return nil, errors.NewStorageError("find", ErrOffline)
	}

	var rec models.DeferredAction
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		s.db.markOffline(err)
		return nil, errors.NewStorageError("find", err)
	}
	normalize(&rec)
	return &rec, nil
}

func buildRecord(id int64, a models.NewDeferredAction, now time.Time) *models.DeferredAction {
	args := a.Args
	if args == nil {
		args = []string{}
	}
	return &models.DeferredAction{
		ID:             id,
		HandlerName:    a.HandlerName,
		RunAt:          a.RunAt.UTC().Truncate(time.Millisecond),
		GuildID:        a.GuildID,
		DisplayCommand: a.DisplayCommand,
		Args:           append([]string(nil), args...),
		CreatedAt:      now.UTC().Truncate(time.Millisecond),
	}
}

// normalize undoes what BSON round-trips change: local time zones and nil slices
func normalize(rec *models.DeferredAction) {
	rec.RunAt = rec.RunAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.Args == nil {
		rec.Args = []string{}
	}
}
