package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/avi3tal/weaveflow/pkg/types"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating when needed) the database at path and applies
// pending migrations. Use MemoryPath for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opt ...Option) (*SQLiteStore, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// a single connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite database")
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := NewSQLiteStoreFromDB(db, opt...)
	s.opts.logger.Debug().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing, already migrated connection.
func NewSQLiteStoreFromDB(db *sql.DB, opt ...Option) *SQLiteStore {
	return &SQLiteStore{db: db, opts: newOptions(opt)}
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, nodes, edges, created_at, updated_at FROM workflows ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workflows")
	}
	defer rows.Close()

	var out []types.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list workflows")
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, nodes, edges, created_at, updated_at FROM workflows WHERE id = ?`, id)
	wf, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Workflow{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if err != nil {
		return types.Workflow{}, err
	}
	return wf, nil
}

func (s *SQLiteStore) Create(ctx context.Context, wf types.Workflow) (types.Workflow, error) {
	wf = prepareCreate(wf, s.opts.clock.Now().UTC())
	nodes, edges, err := encodeGraph(wf)
	if err != nil {
		return types.Workflow{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (id, name, nodes, edges, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		wf.ID, wf.Name, nodes, edges, wf.CreatedAt.Format(timeLayout), wf.UpdatedAt.Format(timeLayout))
	if err != nil {
		return types.Workflow{}, errors.Wrapf(err, "failed to create workflow %s", wf.ID)
	}
	return wf, nil
}

func (s *SQLiteStore) Update(ctx context.Context, wf types.Workflow) (types.Workflow, error) {
	nodes, edges, err := encodeGraph(wf)
	if err != nil {
		return types.Workflow{}, err
	}
	now := s.opts.clock.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET name = COALESCE(NULLIF(?, ''), name), nodes = ?, edges = ?, updated_at = ? WHERE id = ?`,
		wf.Name, nodes, edges, now.Format(timeLayout), wf.ID)
	if err != nil {
		return types.Workflow{}, errors.Wrapf(err, "failed to update workflow %s", wf.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Workflow{}, errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return types.Workflow{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, wf.ID)
	}
	return s.Get(ctx, wf.ID)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete workflow %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (types.Workflow, error) {
	var (
		wf                   types.Workflow
		nodes, edges         string
		createdAt, updatedAt string
	)
	if err := row.Scan(&wf.ID, &wf.Name, &nodes, &edges, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wf, err
		}
		return wf, errors.Wrap(err, "failed to scan workflow")
	}
	if err := json.Unmarshal([]byte(nodes), &wf.Nodes); err != nil {
		return wf, errors.Wrapf(err, "workflow %s: invalid nodes", wf.ID)
	}
	if err := json.Unmarshal([]byte(edges), &wf.Edges); err != nil {
		return wf, errors.Wrapf(err, "workflow %s: invalid edges", wf.ID)
	}
	var err error
	if wf.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return wf, errors.Wrapf(err, "workflow %s: invalid created_at", wf.ID)
	}
	if wf.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return wf, errors.Wrapf(err, "workflow %s: invalid updated_at", wf.ID)
	}
	return wf, nil
}

func encodeGraph(wf types.Workflow) (string, string, error) {
	nodes := wf.Nodes
	if nodes == nil {
		nodes = []types.Node{}
	}
	edges := wf.Edges
	if edges == nil {
		edges = []types.Edge{}
	}
	n, err := json.Marshal(nodes)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to encode nodes")
	}
	e, err := json.Marshal(edges)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to encode edges")
	}
	return string(n), string(e), nil
}
