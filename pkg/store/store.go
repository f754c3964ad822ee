// Package store persists named graph snapshots.
//
// A snapshot is a built taint graph frozen under a name so it can be
// reopened, compared or served without re-parsing the trace. Two backends
// implement [Store]:
//
//   - [SQLiteStore]: a single local database file (the CLI default)
//   - [MongoStore]: a shared collection for server deployments
//
// Snapshot ids are random UUIDs. Names are not unique: [Store.Get] accepts
// either an id or a name and resolves a name to its newest snapshot.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/taintview/pkg/cache"
	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/taint"
)

// ErrNotFound is returned when no snapshot matches an id or name.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a stored graph with its metadata. List results leave Graph empty.
type Snapshot struct {
	ID          string      `json:"id" bson:"_id"`
	Name        string      `json:"name" bson:"name"`
	Policy      string      `json:"policy,omitempty" bson:"policy,omitempty"`
	Fingerprint string      `json:"fingerprint" bson:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	Nodes       int         `json:"nodes" bson:"nodes"`
	Edges       int         `json:"edges" bson:"edges"`
	Graph       graph.Graph `json:"graph,omitzero" bson:"graph,omitempty"`
}

// Store persists snapshots.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, idOrName string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewSnapshot freezes g under name.
func NewSnapshot(name string, policy taint.Policy, g *taint.Graph) (Snapshot, error) {
	if err := apperrors.ValidateSnapshotName(name); err != nil {
		return Snapshot{}, err
	}
	gj := graph.FromTaint(g)
	gj.Policy = string(policy)
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:          uuid.NewString(),
		Name:        name,
		Policy:      string(policy),
		Fingerprint: cache.Fingerprint(data),
		CreatedAt:   time.Now().UTC(),
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		Graph:       gj,
	}, nil
}

// Taint rebuilds the snapshot's graph.
func (s Snapshot) Taint() (*taint.Graph, error) {
	return graph.ToTaint(s.Graph)
}

// notFound wraps ErrNotFound with the NOT_FOUND code.
func notFound(idOrName string) error {
	return apperrors.Wrap(apperrors.ErrCodeNotFound, ErrNotFound, "snapshot %q", idOrName)
}

// backendErr tags a database failure with STORAGE_ERROR. nil stays nil.
func backendErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrCodeStorage, err, "%s", op)
}

// isID reports whether v looks like a snapshot id rather than a name.
func isID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}
