package sqlite

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/remotefs/client"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteClient serves positional reads from object blobs stored in a
// SQLite database. An in-memory B-tree caches key to ID lookups; reads go
// through substr so only the requested range leaves the database.
type SQLiteClient struct {
	mu sync.RWMutex
	db *sql.DB

	// In-memory B-tree for fast key lookups
	keys *btree.Map[string, string]
}

// NewSQLiteClient creates a new SQLite-backed client. The dbPath can be
// ":memory:" for an in-memory database or a file path.
func NewSQLiteClient(dbPath string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	sc := &SQLiteClient{
		db:   db,
		keys: btree.NewMap[string, string](0),
	}

	if err := sc.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return sc, nil
}

func (sc *SQLiteClient) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS remotefs_objects (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		content BLOB NOT NULL,
		size INTEGER NOT NULL CHECK(size >= 0),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_remotefs_objects_key ON remotefs_objects(key);
	`

	_, err := sc.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this client.
func (*SQLiteClient) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called when the client
// is registered. Warms the key cache from the objects table.
func (sc *SQLiteClient) Open(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	rows, err := sc.db.QueryContext(ctx, "SELECT key, id FROM remotefs_objects")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return err
		}
		sc.keys.Set(key, id)
	}

	return rows.Err()
}

// Close is part of the lifecycle behaviour and gets called when the client is unregistered.
func (sc *SQLiteClient) Close(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.keys.Clear()
	return sc.db.Close()
}

// Put stores data under key, replacing any previous object.
func (sc *SQLiteClient) Put(ctx context.Context, key string, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	id, exists := sc.keys.Get(key)
	if !exists {
		id = uuid.Must(uuid.NewV7()).String()
	}

	_, err := sc.db.ExecContext(ctx,
		`INSERT INTO remotefs_objects (id, key, content, size, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content, size = excluded.size`,
		id, key, data, len(data), time.Now().Unix())
	if err != nil {
		return err
	}

	sc.keys.Set(key, id)
	return nil
}

// OpenReader opens an independent positional reader for the object at key.
// The bufferSize hint has no effect; every read selects its own range.
func (sc *SQLiteClient) OpenReader(ctx context.Context, key string, bufferSize int) (client.Reader, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	id, exists := sc.keys.Get(key)
	if !exists {
		return nil, client.ErrNotExist
	}

	return &sqliteReader{client: sc, id: id}, nil
}

// Stat returns the byte length of the object at key.
func (sc *SQLiteClient) Stat(ctx context.Context, key string) (int64, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	id, exists := sc.keys.Get(key)
	if !exists {
		return 0, client.ErrNotExist
	}

	var size int64
	err := sc.db.QueryRowContext(ctx,
		"SELECT size FROM remotefs_objects WHERE id = ?", id).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, client.ErrNotExist
	}
	if err != nil {
		return 0, err
	}

	return size, nil
}

// Exists reports whether an object is present at key.
func (sc *SQLiteClient) Exists(ctx context.Context, key string) (bool, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	_, exists := sc.keys.Get(key)
	return exists, nil
}

type sqliteReader struct {
	mu     sync.Mutex
	client *SQLiteClient
	id     string
	closed bool
}

// ReadAt selects the requested range with substr. The object is addressed
// by its ID snapshot from open, so a replacing Put under the same key does
// not redirect an already open reader.
func (sr *sqliteReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	sr.mu.Lock()
	if sr.closed {
		sr.mu.Unlock()
		return 0, client.ErrClosed
	}
	sr.mu.Unlock()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if off < 0 {
		return 0, client.ErrInvalid
	}
	if len(p) == 0 {
		return 0, nil
	}

	var chunk []byte
	var size int64
	err := sr.client.db.QueryRowContext(ctx,
		"SELECT substr(content, ?, ?), size FROM remotefs_objects WHERE id = ?",
		off+1, len(p), sr.id).Scan(&chunk, &size)
	if err == sql.ErrNoRows {
		return 0, client.ErrNotExist
	}
	if err != nil {
		return 0, err
	}

	if off >= size {
		return 0, io.EOF
	}

	n := copy(p, chunk)
	if off+int64(n) >= size && n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (sr *sqliteReader) Close() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.closed {
		return client.ErrClosed
	}

	sr.closed = true
	return nil
}
