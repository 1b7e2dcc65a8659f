package ingestcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCacheGetPutDelete(t *testing.T) {
	c, err := OpenSQLite(":memory:", "openai_te_ic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := t.Context()
	_, found, err := c.Get(ctx, Key("th1", "node-1"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(ctx, Key("th1", "node-1"), "embedded"))

	value, found, err := c.Get(ctx, Key("th1", "node-1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "embedded", value)

	require.NoError(t, c.Delete(ctx, Key("th1", "node-1")))
	_, found, err = c.Get(ctx, Key("th1", "node-1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteCacheKeyChangesWithTransformHash(t *testing.T) {
	a := Key("th1", "node-1")
	b := Key("th2", "node-1")
	assert.NotEqual(t, a, b)
}

func TestSQLiteCacheClear(t *testing.T) {
	c, err := OpenSQLite(":memory:", "openai_te_ic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := t.Context()
	require.NoError(t, c.Put(ctx, "a", "1"))
	require.NoError(t, c.Put(ctx, "b", "2"))
	require.NoError(t, c.Clear(ctx))

	_, found, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}
