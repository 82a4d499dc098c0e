// Package sqlstore persists deferred actions in a local SQLite file, for
// deployments that run without MongoDB.
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/goccy/go-json"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS deferred_actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	handler TEXT NOT NULL,
	run_at INTEGER NOT NULL,
	guild_id TEXT NOT NULL,
	command TEXT NOT NULL DEFAULT '',
	args TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS deferred_run_at_idx ON deferred_actions (run_at ASC);
CREATE INDEX IF NOT EXISTS deferred_guild_idx ON deferred_actions (guild_id, run_at ASC);
`

// Store is a deferred action store backed by SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func connectionString(file string) string {
	qs := url.Values{
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			"busy_timeout(2000)",
			"synchronous(NORMAL)",
		},
	}
	return "file:" + file + "?" + qs.Encode()
}

// Open opens (or creates) the database file and its schema
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, stderrors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", connectionString(path))
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps SQLite away from SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.System(fmt.Sprintf("Almacén SQLite listo en %s", path), "SQLite")
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores a new record; AUTOINCREMENT keeps ids from being reused
func (s *Store) Insert(ctx context.Context, a models.NewDeferredAction) (*models.DeferredAction, error) {
	args := a.Args
	if args == nil {
		args = []string{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, errors.NewStorageError("insert", err)
	}

	rec := &models.DeferredAction{
		HandlerName:    a.HandlerName,
		RunAt:          a.RunAt.UTC().Truncate(time.Millisecond),
		GuildID:        a.GuildID,
		DisplayCommand: a.DisplayCommand,
		Args:           append([]string(nil), args...),
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deferred_actions(handler, run_at, guild_id, command, args, created_at) VALUES(?,?,?,?,?,?)`,
		rec.HandlerName, rec.RunAt.UnixMilli(), rec.GuildID, rec.DisplayCommand, string(encoded), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, errors.NewStorageError("insert", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return nil, errors.NewStorageError("insert", err)
	}
	return rec, nil
}

// Remove deletes a record; missing ids are ignored
func (s *Store) Remove(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM deferred_actions WHERE id = ?`, id)
	return errors.NewStorageError("remove", err)
}

// ListAll returns every record ordered by RunAt
func (s *Store) ListAll(ctx context.Context) ([]*models.DeferredAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, handler, run_at, guild_id, command, args, created_at FROM deferred_actions ORDER BY run_at ASC, id ASC`)
	if err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	defer rows.Close()

	out := make([]*models.DeferredAction, 0)
	for rows.Next() {
		rec, err := scanAction(rows)
		if err != nil {
			return nil, errors.NewStorageError("list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	return out, nil
}

// FindByID returns the record or nil when there is none
func (s *Store) FindByID(ctx context.Context, id int64) (*models.DeferredAction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, handler, run_at, guild_id, command, args, created_at FROM deferred_actions WHERE id = ?`, id)

	rec, err := scanAction(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("find", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(sc scanner) (*models.DeferredAction, error) {
	var (
		rec       models.DeferredAction
		runAt     int64
		createdAt int64
		rawArgs   string
	)
	if err := sc.Scan(&rec.ID, &rec.HandlerName, &runAt, &rec.GuildID, &rec.DisplayCommand, &rawArgs, &createdAt); err != nil {
		return nil, err
	}

	rec.RunAt = time.UnixMilli(runAt).UTC()
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.Args = []string{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &rec.Args); err != nil {
			return nil, fmt.Errorf("decoding args of job %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
