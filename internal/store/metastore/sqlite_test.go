package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
)

func TestUpsertBatchAndSelectRecent(t *testing.T) {
	s, err := OpenSQLite(":memory:", "openai_te_meta")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := t.Context()
	rows := []Row{
		{NodeID: "n1", RefDocID: "r1", BaseSource: "b1", Fingerprint: "f1", Modality: metadata.Text, NodeLastModAt: 100},
		{NodeID: "n2", RefDocID: "r1", BaseSource: "b1", Fingerprint: "f2", Modality: metadata.Text, NodeLastModAt: 200},
	}
	require.NoError(t, s.UpsertBatch(ctx, rows))

	recent, err := s.SelectRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "n2", recent[0].NodeID) // newest first
	assert.Equal(t, "n1", recent[1].NodeID)
}

func TestUpsertBatchRollsBackOnFingerprintCollision(t *testing.T) {
	s, err := OpenSQLite(":memory:", "openai_te_meta")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := t.Context()
	require.NoError(t, s.UpsertBatch(ctx, []Row{
		{NodeID: "n1", RefDocID: "r1", BaseSource: "b1", Fingerprint: "dup", NodeLastModAt: 1},
	}))

	// A second, different node with the same fingerprint must fail the
	// whole batch, including the new node "n3" that would otherwise have
	// committed alongside it.
	err = s.UpsertBatch(ctx, []Row{
		{NodeID: "n3", RefDocID: "r3", BaseSource: "b3", Fingerprint: "fresh", NodeLastModAt: 2},
		{NodeID: "n2", RefDocID: "r1", BaseSource: "b1", Fingerprint: "dup", NodeLastModAt: 3},
	})
	assert.Error(t, err)

	exists, err := s.FingerprintExists(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, exists, "batch must roll back entirely on collision")
}

func TestDeleteByBaseSourceReturnsAffectedRefDocIDs(t *testing.T) {
	s, err := OpenSQLite(":memory:", "openai_te_meta")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := t.Context()
	require.NoError(t, s.UpsertBatch(ctx, []Row{
		{NodeID: "n1", RefDocID: "r1", BaseSource: "b1", Fingerprint: "f1", NodeLastModAt: 1},
		{NodeID: "n2", RefDocID: "r2", BaseSource: "b1", Fingerprint: "f2", NodeLastModAt: 2},
		{NodeID: "n3", RefDocID: "r3", BaseSource: "b2", Fingerprint: "f3", NodeLastModAt: 3},
	}))

	affected, err := s.DeleteByBaseSource(ctx, "b1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, affected)

	exists, err := s.FingerprintExists(ctx, "f3")
	require.NoError(t, err)
	assert.True(t, exists, "unrelated base_source rows must survive")
}
