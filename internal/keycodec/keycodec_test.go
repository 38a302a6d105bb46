package keycodec

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKey(t *testing.T) {
	assert.Equal(t, "forum:item:t1", ItemKey("forum", "item", "t1"))
	assert.Equal(t, "forum:aggregate:cats", ItemKey("forum", "aggregate", "cats"))
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, "forum:list:", KindPrefix("forum", "list"))
	assert.Equal(t, "forum:list:plant-care:", ScopePrefix("forum", "list", "plant-care"))
	// Empty scope widens to the whole kind.
	assert.Equal(t, "forum:list:", ScopePrefix("forum", "list", ""))
}

func TestListKeyOrderInsensitive(t *testing.T) {
	a, err := ListKey("thread", "plant-care", 1, 20, map[string]any{"sort": "-created", "q": "leaf"})
	require.NoError(t, err)
	b, err := ListKey("thread", "plant-care", 1, 20, map[string]any{"q": "leaf", "sort": "-created"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "thread:list:plant-care:1:20:"))

	// Any single differing coordinate changes the key.
	c, err := ListKey("thread", "plant-care", 2, 20, map[string]any{"q": "leaf", "sort": "-created"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	d, err := ListKey("thread", "plant-care", 1, 20, map[string]any{"q": "stem", "sort": "-created"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestFilterDigestEmptyShapes(t *testing.T) {
	nilD, err := FilterDigest(nil)
	require.NoError(t, err)
	emptyD, err := FilterDigest(map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, nilD, emptyD, "nil and empty filters share one shape")
	assert.Len(t, nilD, 32)
}

func TestFilterDigestNoCollisionsAcrossCorpus(t *testing.T) {
	seen := make(map[string]string)

	record := func(t *testing.T, label string, f map[string]any) {
		t.Helper()
		d, err := FilterDigest(f)
		require.NoError(t, err)
		require.Len(t, d, 32)
		if prev, dup := seen[d]; dup {
			t.Fatalf("digest collision between %q and %q", prev, label)
		}
		seen[d] = label
	}

	for i := 0; i < 100; i++ {
		for j := 0; j < 100; j++ {
			record(t, fmt.Sprintf("q%d-sort%d", i, j), map[string]any{
				"q":    fmt.Sprintf("term-%d", i),
				"sort": fmt.Sprintf("field-%d", j),
			})
		}
	}
	for i := 0; i < 1000; i++ {
		record(t, fmt.Sprintf("author%d", i), map[string]any{
			"author": i,
			"open":   i%2 == 0,
		})
	}
	// Value typing is part of the shape.
	record(t, "string-1", map[string]any{"v": "1"})
	record(t, "int-1", map[string]any{"v": 1})
}

func TestListKeyUnserializableFilterFallsBack(t *testing.T) {
	key, err := ListKey("thread", "plant-care", 1, 20, map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	var kerr *KeyEncodingError
	require.True(t, errors.As(err, &kerr))
	assert.Equal(t, "ch", kerr.Field)

	// The key is still usable and deterministic.
	assert.Equal(t, "thread:list:plant-care:1:20:"+SentinelDigest, key)
	key2, err2 := ListKey("thread", "plant-care", 1, 20, map[string]any{"fn": func() {}})
	require.Error(t, err2)
	assert.Equal(t, key, key2, "all pathological filter sets share the sentinel slot")
}
