// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps solver results in a local SQLite database so earlier
// runs can be listed, reloaded and re-rendered without re-solving.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hongzhonglu/transcriptutorial/pkg/types"
)

var (
	// ErrNotFound is returned when no run matches an identifier.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguous is returned when an identifier prefix matches several runs.
	ErrAmbiguous = errors.New("run identifier is ambiguous")
)

// now is replaced in tests.
var now = time.Now

// Run describes one stored solver run.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Solver     string    `json:"solver" yaml:"solver"`
	Column     string    `json:"column" yaml:"column"`
	ResultPath string    `json:"result_path,omitempty" yaml:"result_path,omitempty"`
	Edges      int       `json:"edges" yaml:"edges"`
	Nodes      int       `json:"nodes" yaml:"nodes"`
}

// RunMeta is the caller-supplied part of a Run.
type RunMeta struct {
	Solver     string
	Column     string
	ResultPath string
}

// Store manages the run database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at path and creates the schema if
// it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			solver TEXT,
			column_name TEXT,
			result_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			sign INTEGER NOT NULL,
			target TEXT NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			node TEXT NOT NULL,
			zero_act REAL NOT NULL,
			up_act REAL NOT NULL,
			down_act REAL NOT NULL,
			avg_act REAL NOT NULL,
			node_type TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_node ON nodes(node)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores r under a new run identifier and returns the run record.
// Rows keep their table order.
func (s *Store) SaveRun(ctx context.Context, meta RunMeta, r *types.SolverResult) (Run, error) {
	run := Run{
		ID:         uuid.New().String(),
		CreatedAt:  now().UTC(),
		Solver:     meta.Solver,
		Column:     meta.Column,
		ResultPath: meta.ResultPath,
		Edges:      len(r.WeightedSIF),
		Nodes:      len(r.Nodes),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, solver, column_name, result_path) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Solver, run.Column, run.ResultPath,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (run_id, position, source, sign, target, weight) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range r.WeightedSIF {
		if _, err := edgeStmt.ExecContext(ctx, run.ID, i, e.Source, int(e.Sign), e.Target, e.Weight); err != nil {
			return Run{}, fmt.Errorf("inserting edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (run_id, position, node, zero_act, up_act, down_act, avg_act, node_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing node insert: %w", err)
	}
	defer nodeStmt.Close()
	for i, n := range r.Nodes {
		_, err := nodeStmt.ExecContext(ctx, run.ID, i, n.Node, n.ZeroAct, n.UpAct, n.DownAct, n.AvgAct, string(n.NodeType))
		if err != nil {
			return Run{}, fmt.Errorf("inserting node %s: %w", n.Node, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

const runColumns = `r.id, r.created_at, r.solver, r.column_name, r.result_path,
	(SELECT count(*) FROM edges e WHERE e.run_id = r.id),
	(SELECT count(*) FROM nodes n WHERE n.run_id = r.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run     Run
		created string
		solver  sql.NullString
		column  sql.NullString
		path    sql.NullString
	)
	if err := row.Scan(&run.ID, &created, &solver, &column, &path, &run.Edges, &run.Nodes); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad timestamp %q: %w", run.ID, created, err)
	}
	run.CreatedAt = t
	run.Solver = solver.String
	run.Column = column.String
	run.ResultPath = path.String
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResolveID expands a unique identifier prefix to the full run identifier.
// The literal "latest" selects the newest run.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	var rows *sql.Rows
	var err error
	if prefix == "latest" {
		rows, err = s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, id LIMIT 1`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id FROM runs WHERE substr(id, 1, length(?)) = ? LIMIT 2`, prefix, prefix)
	}
	if err != nil {
		return "", fmt.Errorf("resolving run %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%q: %w", prefix, ErrNotFound)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%q: %w", prefix, ErrAmbiguous)
}

// LoadRun returns the run identified by id (or a unique prefix of it) with
// its result tables in their stored order.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, *types.SolverResult, error) {
	full, err := s.ResolveID(ctx, id)
	if err != nil {
		return Run{}, nil, err
	}
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, full))
	if err != nil {
		return Run{}, nil, fmt.Errorf("loading run %s: %w", full, err)
	}

	r := &types.SolverResult{}
	edges, err := s.db.QueryContext(ctx,
		`SELECT source, sign, target, weight FROM edges WHERE run_id = ? ORDER BY position`, full)
	if err != nil {
		return Run{}, nil, fmt.Errorf("querying edges: %w", err)
	}
	defer edges.Close()
	for edges.Next() {
		var e types.WeightedEdge
		var sign int
		if err := edges.Scan(&e.Source, &sign, &e.Target, &e.Weight); err != nil {
			return Run{}, nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Sign = types.Sign(sign)
		r.WeightedSIF = append(r.WeightedSIF, e)
	}
	if err := edges.Err(); err != nil {
		return Run{}, nil, err
	}

	nodes, err := s.db.QueryContext(ctx,
		`SELECT node, zero_act, up_act, down_act, avg_act, node_type FROM nodes WHERE run_id = ? ORDER BY position`, full)
	if err != nil {
		return Run{}, nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer nodes.Close()
	for nodes.Next() {
		var n types.NodeAttribute
		var nodeType string
		if err := nodes.Scan(&n.Node, &n.ZeroAct, &n.UpAct, &n.DownAct, &n.AvgAct, &nodeType); err != nil {
			return Run{}, nil, fmt.Errorf("scanning node: %w", err)
		}
		n.NodeType = types.NodeType(nodeType)
		r.Nodes = append(r.Nodes, n)
	}
	if err := nodes.Err(); err != nil {
		return Run{}, nil, err
	}

	return run, r, nil
}

// DeleteRun removes a run and its tables.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	full, err := s.ResolveID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, full); err != nil {
		return fmt.Errorf("deleting run %s: %w", full, err)
	}
	return nil
}
