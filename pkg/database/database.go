// Package database holds the MongoDB connection used to persist deferred jobs.
// While the server is unreachable, deletes are queued and replayed on reconnect.
package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrOffline is wrapped into storage errors while the database is unreachable
var ErrOffline = stderrors.New("database offline")

// OpDelete is the only operation replayed from the offline queue
const OpDelete = "delete"

// QueuedOperation represents a pending database operation
type QueuedOperation struct {
	CollectionName string
	Query          bson.M
	Operation      string
}

// Database manages the MongoDB connection
type Database struct {
	client          *mongo.Client
	db              *mongo.Database
	isConnected     bool
	url             string
	name            string
	writeQueue      []QueuedOperation
	reconnectTicker *time.Ticker
	reconnectEvery  time.Duration
	stopReconnect   chan struct{}
	stopOnce        sync.Once
	mu              sync.RWMutex
	queueMu         sync.Mutex
	collections     map[string]*mongo.Collection
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init initializes the global database instance
func Init(mongoURL, dbName string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database = NewDatabase()
		err = database.Connect(mongoURL, dbName)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// NewDatabase creates a new Database instance
func NewDatabase() *Database {
	return &Database{
		writeQueue:     make([]QueuedOperation, 0),
		reconnectEvery: 15 * time.Second,
		stopReconnect:  make(chan struct{}),
		collections:    make(map[string]*mongo.Collection),
	}
}

// Connect establishes a connection to MongoDB. On failure the reconnect loop
// keeps trying in the background.
func (d *Database) Connect(mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isConnected {
		return nil
	}
	d.url, d.name = mongoURL, dbName

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos.", "DB")
		d.startReconnect()
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("Fallo al verificar conexión con la base de datos.", "DB")
		_ = client.Disconnect(context.Background())
		d.startReconnect()
		return err
	}

	d.client = client
	d.db = client.Database(dbName)
	d.collections = make(map[string]*mongo.Collection)
	d.isConnected = true

	logger.Success("Conectado exitosamente a la base de datos.", "DB")

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	go d.syncOfflineWrites()

	return nil
}

// startReconnect must be called with d.mu held
func (d *Database) startReconnect() {
	if d.reconnectTicker != nil {
		return
	}
	ticker := time.NewTicker(d.reconnectEvery)
	d.reconnectTicker = ticker
	url, name := d.url, d.name

	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				if err := d.Connect(url, name); err == nil {
					return
				}
			case <-d.stopReconnect:
				return
			}
		}
	}()
}

// markOffline switches to offline mode after a network failure
func (d *Database) markOffline(err error) {
	if err == nil || !(mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isConnected {
		return
	}
	d.isConnected = false
	logger.Warn("Se perdió la conexión con la base de datos. Activando modo offline.", "DB")
	if d.client != nil {
		client := d.client
		go func() { _ = client.Disconnect(context.Background()) }()
		d.client, d.db = nil, nil
	}
	d.startReconnect()
}

// Connected reports whether the last connection attempt succeeded
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isConnected
}

// Disconnect closes the database connection and stops reconnecting
func (d *Database) Disconnect() error {
	d.stopOnce.Do(func() { close(d.stopReconnect) })

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	if d.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.client.Disconnect(ctx); err != nil {
			return err
		}
		d.client, d.db = nil, nil
		d.isConnected = false
		logger.Warn("La base de datos ha sido desconectada", "DB")
	}
	return nil
}

// Ping measures the database response time
func (d *Database) Ping() (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isConnected || d.client == nil {
		return 0, ErrOffline
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := d.client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// GetStatus returns the database connection status
func (d *Database) GetStatus() (string, bool) {
	if _, err := d.Ping(); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// GetCollection returns a MongoDB collection, or nil while offline
func (d *Database) GetCollection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}

// AddToWriteQueue adds an operation to the offline write queue
func (d *Database) AddToWriteQueue(op QueuedOperation) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.writeQueue = append(d.writeQueue, op)
}

// QueueLen returns the number of operations waiting for a reconnect
func (d *Database) QueueLen() int {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.writeQueue)
}

// syncOfflineWrites replays queued operations
func (d *Database) syncOfflineWrites() {
	d.queueMu.Lock()
	if len(d.writeQueue) == 0 {
		d.queueMu.Unlock()
		return
	}

	logger.System(fmt.Sprintf("Sincronizando %d operaciones pendientes con la DB...", len(d.writeQueue)), "DB-Sync")

	operations := make([]QueuedOperation, len(d.writeQueue))
	copy(operations, d.writeQueue)
	d.writeQueue = make([]QueuedOperation, 0)
	d.queueMu.Unlock()

	failedOps := make([]QueuedOperation, 0)

	for _, op := range operations {
		col := d.GetCollection(op.CollectionName)
		if col == nil {
			failedOps = append(failedOps, op)
			continue
		}

		if op.Operation != OpDelete {
			logger.Warn(fmt.Sprintf("Operación desconocida '%s' descartada.", op.Operation), "DB-Sync")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := col.DeleteOne(ctx, op.Query)
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("Error al sincronizar operación para '%s'. La operación se volverá a encolar.", op.CollectionName), "DB-Sync")
			failedOps = append(failedOps, op)
		}
	}

	if len(failedOps) > 0 {
		d.queueMu.Lock()
		d.writeQueue = append(d.writeQueue, failedOps...)
		d.queueMu.Unlock()
		logger.Warn(fmt.Sprintf("%d operaciones no pudieron sincronizarse y se reintentarán.", len(failedOps)), "DB-Sync")
	} else {
		logger.Success("Sincronización completada exitosamente.", "DB-Sync")
	}
}

// Client returns the underlying MongoDB client
func (d *Database) Client() *mongo.Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.client
}
