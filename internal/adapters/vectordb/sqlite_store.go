package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/ports"
)

const metaFile = "meta.json"

// snapshotMeta is the commit record. Whatever meta.json names is the live
// snapshot; files it does not name are garbage from older or aborted saves.
type snapshotMeta struct {
	Fingerprint string    `json:"fingerprint"`
	Snapshot    string    `json:"snapshot"`
	BuiltAt     time.Time `json:"built_at"`
}

// SQLiteSnapshotStore implements ports.SnapshotStore. Each save writes a new
// SQLite file, then commits it by atomically replacing meta.json.
type SQLiteSnapshotStore struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewSQLiteSnapshotStore creates a store rooted at dir.
func NewSQLiteSnapshotStore(dir string, logger *slog.Logger) (*SQLiteSnapshotStore, error) {
	if dir == "" {
		dir = "vectorstore"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSnapshotStore{dir: dir, logger: logger}, nil
}

const schema = `
CREATE TABLE chunks (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	source TEXT NOT NULL,
	content TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	embedding BLOB NOT NULL
);
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Save persists the snapshot. The previous snapshot stays loadable until the
// meta.json rename succeeds.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap ports.PersistedSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := "snapshot-" + snap.ID + ".db"
	path := filepath.Join(s.dir, name)
	if err := s.writeDB(ctx, path, snap); err != nil {
		os.Remove(path)
		return err
	}

	builtAt := snap.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}
	meta := snapshotMeta{Fingerprint: snap.Fingerprint, Snapshot: name, BuiltAt: builtAt}
	if err := s.commit(meta); err != nil {
		os.Remove(path)
		return err
	}

	s.removeStale(name)
	s.logger.Info("index snapshot persisted", "snapshot", name, "chunks", len(snap.Chunks))
	return nil
}

func (s *SQLiteSnapshotStore) writeDB(ctx context.Context, path string, snap ports.PersistedSnapshot) error {
	os.Remove(path)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, document_id, source, content, chunk_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range snap.Chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, chunk.ID, chunk.DocumentID, chunk.Source, chunk.Content, chunk.Index, embeddingJSON); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	for key, value := range map[string]string{"id": snap.ID, "fingerprint": snap.Fingerprint} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("writing meta: %w", err)
		}
	}
	return tx.Commit()
}

// commit writes meta.json through a synced temp file and rename.
func (s *SQLiteSnapshotStore) commit(meta snapshotMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "meta-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp meta: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp meta: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp meta: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp meta: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, metaFile)); err != nil {
		return fmt.Errorf("committing meta: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) removeStale(keep string) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "snapshot-*.db"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if filepath.Base(m) == keep {
			continue
		}
		if err := os.Remove(m); err != nil {
			s.logger.Warn("removing stale snapshot", "path", m, "error", err)
		}
	}
}

// Load returns the committed snapshot, or ports.ErrSnapshotNotFound.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (ports.PersistedSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap ports.PersistedSnapshot

	data, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return snap, ports.ErrSnapshotNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("reading meta: %w", err)
	}
	var meta snapshotMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return snap, fmt.Errorf("decoding meta: %w", err)
	}

	path := filepath.Join(s.dir, meta.Snapshot)
	if _, err := os.Stat(path); err != nil {
		return snap, fmt.Errorf("snapshot %s named by meta: %w", meta.Snapshot, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return snap, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var stored string
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&stored); err != nil {
		return snap, fmt.Errorf("reading snapshot fingerprint: %w", err)
	}
	if stored != meta.Fingerprint {
		return snap, fmt.Errorf("snapshot %s fingerprint does not match meta", meta.Snapshot)
	}
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'id'`).Scan(&snap.ID); err != nil {
		return snap, fmt.Errorf("reading snapshot id: %w", err)
	}
	snap.Fingerprint = meta.Fingerprint
	snap.BuiltAt = meta.BuiltAt

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, source, content, chunk_index, embedding
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return snap, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk entities.Chunk
		var embeddingJSON []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Source, &chunk.Content, &chunk.Index, &embeddingJSON); err != nil {
			return snap, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embeddingJSON, &chunk.Embedding); err != nil {
			return snap, fmt.Errorf("decoding embedding of %s: %w", chunk.ID, err)
		}
		snap.Chunks = append(snap.Chunks, chunk)
	}
	return snap, rows.Err()
}
