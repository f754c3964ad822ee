package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/taint"
)

func sampleGraph(t *testing.T) *taint.Graph {
	t.Helper()
	b := taint.NewBuilder()
	for _, l := range []string{
		"[1] reg eax 1:0 1:1 fwd 2 3",
		"[2] mem ebx 2:0 none 3 none",
	} {
		require.NoError(t, b.Ingest(l))
	}
	return b.Graph()
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSnapshot(t *testing.T) {
	g := sampleGraph(t)

	snap, err := NewSnapshot("run-1", taint.PolicyTaintBranch, g)
	require.NoError(t, err)

	assert.True(t, isID(snap.ID))
	assert.Equal(t, "run-1", snap.Name)
	assert.Equal(t, "TAINT_BRANCH", snap.Policy)
	assert.Equal(t, 3, snap.Nodes)
	assert.Equal(t, 3, snap.Edges)
	assert.Len(t, snap.Fingerprint, 16)

	again, err := NewSnapshot("run-2", taint.PolicyDefault, g)
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, again.ID)
	assert.Equal(t, snap.Fingerprint, again.Fingerprint, "same graph, same fingerprint")
}

func TestNewSnapshot_InvalidName(t *testing.T) {
	_, err := NewSnapshot("../etc", taint.PolicyDefault, sampleGraph(t))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidName))
}

func TestSQLiteStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	snap, err := NewSnapshot("run", taint.PolicyDefault, sampleGraph(t))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Name, got.Name)
	assert.Equal(t, snap.Fingerprint, got.Fingerprint)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))

	g, err := got.Taint()
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	n, ok := g.Node("3")
	require.True(t, ok)
	assert.True(t, n.Placeholder)
}

func TestSQLiteStore_GetByNameReturnsNewest(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	g := sampleGraph(t)

	older, _ := NewSnapshot("nightly", taint.PolicyDefault, g)
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer, _ := NewSnapshot("nightly", taint.PolicyDefault, g)
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	got, err := s.Get(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	g := sampleGraph(t)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	a, _ := NewSnapshot("a", taint.PolicyDefault, g)
	a.CreatedAt = time.Now().Add(-time.Minute).UTC()
	b, _ := NewSnapshot("b", taint.PolicyDefault, g)
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "a", list[1].Name)
	assert.Empty(t, list[0].Graph.Nodes, "List omits graphs")
}

func TestSQLiteStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))

	err = s.Delete(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestSQLiteStore_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	snap, _ := NewSnapshot("dup", taint.PolicyDefault, sampleGraph(t))
	require.NoError(t, s.Save(ctx, snap))
	err := s.Save(ctx, snap)
	require.Error(t, err, "duplicate id")
	assert.Equal(t, apperrors.ErrCodeStorage, apperrors.GetCode(err))

	_, err = s.conn.ExecContext(ctx, `UPDATE snapshots SET graph = ? WHERE id = ?`, []byte("garbage"), snap.ID)
	require.NoError(t, err)
	_, err = s.Get(ctx, snap.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDecode, apperrors.GetCode(err))
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "dir", "snapshots.db"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStorage, apperrors.GetCode(err))
}

func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	snap, _ := NewSnapshot("gone", taint.PolicyDefault, sampleGraph(t))
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Delete(ctx, snap.ID))

	_, err := s.Get(ctx, snap.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	snap, _ := NewSnapshot("kept", taint.PolicyDefault, sampleGraph(t))
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, MongoConfig{URI: uri, Database: "taintview_test"})
	require.NoError(t, err)
	defer s.Close()

	snap, _ := NewSnapshot("mongo", taint.PolicyDefault, sampleGraph(t))
	require.NoError(t, s.Save(ctx, snap))
	defer s.Delete(ctx, snap.ID)

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Fingerprint, got.Fingerprint)
	assert.Len(t, got.Graph.Nodes, 3)
}
