package keytrack

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackUntrackLen(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Len())

	r.Track("a:item:1")
	r.Track("a:item:1") // idempotent
	r.Track("a:item:2")
	assert.Equal(t, 2, r.Len())

	r.Untrack("a:item:1")
	r.Untrack("a:item:1") // already gone
	r.Untrack("never-tracked")
	assert.Equal(t, 1, r.Len())
}

func TestSweepPrefixDeletesMatchingOnly(t *testing.T) {
	r := New()
	r.Track("ns:list:plants:1")
	r.Track("ns:list:plants:2")
	r.Track("ns:list:wood:1")
	r.Track("ns:item:t1")

	var deleted []string
	n, errs := r.SweepPrefix("ns:list:plants:", func(k string) error {
		deleted = append(deleted, k)
		return nil
	})

	require.Empty(t, errs)
	assert.Equal(t, 2, n)
	assert.Len(t, deleted, 2)
	assert.Equal(t, 2, r.Len(), "non-matching keys stay tracked")

	// Swept keys are gone from the index too.
	n, errs = r.SweepPrefix("ns:list:plants:", func(string) error { return nil })
	require.Empty(t, errs)
	assert.Equal(t, 0, n)
}

func TestSweepPrefixKeepsFailedDeletesTracked(t *testing.T) {
	r := New()
	r.Track("ns:list:plants:good")
	r.Track("ns:list:plants:bad")

	boom := errors.New("boom")
	n, errs := r.SweepPrefix("ns:list:plants:", func(k string) error {
		if k == "ns:list:plants:bad" {
			return boom
		}
		return nil
	})

	assert.Equal(t, 1, n)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, 1, r.Len(), "failed key stays for a retry sweep")

	// Retry with a working delete drains it.
	n, errs = r.SweepPrefix("ns:list:plants:", func(string) error { return nil })
	require.Empty(t, errs)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, r.Len())
}

func TestUntrackPrefix(t *testing.T) {
	r := New()
	r.Track("ns:list:plants:1")
	r.Track("ns:list:plants:2")
	r.Track("ns:item:t1")

	assert.Equal(t, 2, r.UntrackPrefix("ns:list:plants:"))
	assert.Equal(t, 0, r.UntrackPrefix("ns:list:plants:"))
	assert.Equal(t, 1, r.Len())
}

func TestConcurrentTrack(t *testing.T) {
	r := New()
	keys := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, k := range keys {
				r.Track(k)
				r.Len()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), r.Len())
}
