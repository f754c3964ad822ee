package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps snapshots in a local SQLite file. Graphs are stored as
// JSON blobs.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, backendErr(err, "open "+path)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, backendErr(err, "init schema")
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap.Graph)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode snapshot %s", snap.ID)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, policy, fingerprint, created_at, node_count, edge_count, graph)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.Policy, snap.Fingerprint, snap.CreatedAt.UnixNano(), snap.Nodes, snap.Edges, data,
	)
	return backendErr(err, "save snapshot")
}

// Get returns the snapshot with the given id, or the newest one named idOrName.
func (s *SQLiteStore) Get(ctx context.Context, idOrName string) (Snapshot, error) {
	const cols = `SELECT id, name, policy, fingerprint, created_at, node_count, edge_count, graph FROM snapshots`
	var row *sql.Row
	if isID(idOrName) {
		row = s.conn.QueryRowContext(ctx, cols+` WHERE id = ?`, idOrName)
	} else {
		row = s.conn.QueryRowContext(ctx, cols+` WHERE name = ? ORDER BY created_at DESC LIMIT 1`, idOrName)
	}

	var (
		snap    Snapshot
		created int64
		data    []byte
	)
	err := row.Scan(&snap.ID, &snap.Name, &snap.Policy, &snap.Fingerprint, &created, &snap.Nodes, &snap.Edges, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, notFound(idOrName)
	}
	if err != nil {
		return Snapshot{}, backendErr(err, "get snapshot")
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	if snap.Graph, err = graph.UnmarshalGraph(data); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.ErrCodeDecode, err, "snapshot %s", snap.ID)
	}
	return snap, nil
}

// List returns snapshot metadata, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, policy, fingerprint, created_at, node_count, edge_count
		 FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, backendErr(err, "list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created int64
		)
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Policy, &snap.Fingerprint, &created, &snap.Nodes, &snap.Edges); err != nil {
			return nil, backendErr(err, "list snapshots")
		}
		snap.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, snap)
	}
	return out, backendErr(rows.Err(), "list snapshots")
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return backendErr(err, "delete snapshot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
