package task

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Index is the optional sqlite-backed mirror of task frontmatter. It is
// never the source of truth — the markdown file is — and
// every method degrades to "the caller should fall back to a directory
// scan" by returning an error rather than silently lying about contents.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if necessary) the sqlite file at dbPath and
// ensures its schema exists.
func OpenIndex(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: avoid concurrent-writer lock contention

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tasks (
	path     TEXT PRIMARY KEY,
	agent    TEXT NOT NULL,
	abbr     TEXT NOT NULL,
	status   TEXT NOT NULL,
	priority TEXT NOT NULL,
	created  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks(status, created);
`

// Close releases the underlying sqlite connection.
func (idx *Index) Close() error {
	if idx == nil {
		return nil
	}
	return idx.db.Close()
}

// Upsert mirrors one task's frontmatter into the index. Best-effort: Task
// Manager callers log failures and continue rather than failing the
// surrounding execution.
func (idx *Index) Upsert(t *Task) error {
	_, err := idx.db.Exec(
		`INSERT INTO tasks (path, agent, abbr, status, priority, created)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET agent=excluded.agent, abbr=excluded.abbr,
			status=excluded.status, priority=excluded.priority, created=excluded.created`,
		t.Path, t.Frontmatter.Agent, t.Abbreviation(), string(t.Frontmatter.Status),
		t.Frontmatter.Priority, t.Frontmatter.Created.Format(time.RFC3339Nano),
	)
	return err
}

// IndexedPath is a lightweight row projection for list queries.
type IndexedPath struct {
	Path    string
	Abbr    string
	Created time.Time
}

// ListByStatus returns every indexed task path with the given status,
// ordered by created ascending (the FIFO draining order).
func (idx *Index) ListByStatus(status Status) ([]IndexedPath, error) {
	rows, err := idx.db.Query(`SELECT path, abbr, created FROM tasks WHERE status = ? ORDER BY created ASC, path ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []IndexedPath
	for rows.Next() {
		var p, abbr, created string
		if err := rows.Scan(&p, &abbr, &created); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			ts = time.Time{}
		}
		out = append(out, IndexedPath{Path: p, Abbr: abbr, Created: ts})
	}
	return out, rows.Err()
}

// Count returns the total number of indexed rows. Manager's staleness check
// on a zero-row ListByStatus result looks at the tasks directory, not at
// this count.
func (idx *Index) Count() (int, error) {
	var n int
	err := idx.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// Reconcile rebuilds the index from the on-disk task files under tasksDir.
// Always safe to run: on startup, or whenever a caller suspects the index
// has drifted from disk.
func (idx *Index) Reconcile(tasksDir string) error {
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read tasks dir: %w", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(tasksDir, e.Name())
		t, err := Parse(path)
		if err != nil {
			continue // a malformed task file shouldn't block reconciliation
		}
		if _, err := tx.Exec(
			`INSERT INTO tasks (path, agent, abbr, status, priority, created) VALUES (?, ?, ?, ?, ?, ?)`,
			t.Path, t.Frontmatter.Agent, t.Abbreviation(), string(t.Frontmatter.Status),
			t.Frontmatter.Priority, t.Frontmatter.Created.Format(time.RFC3339Nano),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
