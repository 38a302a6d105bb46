// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/readcache"
//	asynchook "github.com/unkn0wn-root/readcache/hooks/async"
//	"github.com/unkn0wn-root/readcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := readcache.New[Page](readcache.Options[Page]{
//	    Namespace: "forum",
//	    Provider:  provider,
//	    Codec:     codec.JSON[Page]{},
//	    TTL:       readcache.TTLConfig{Item: time.Hour, List: 6 * time.Hour, Aggregate: 24 * time.Hour},
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/readcache"
)

type Hooks struct {
	inner readcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ readcache.Hooks = (*Hooks)(nil)

func New(inner readcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) EncodeFallback(kind readcache.Kind, scope string, err error) {
	h.try(func() { h.inner.EncodeFallback(kind, scope, err) })
}
func (h *Hooks) BackendError(op, k string, err error) {
	h.try(func() { h.inner.BackendError(op, k, err) })
}
func (h *Hooks) SetRejected(k string)      { h.try(func() { h.inner.SetRejected(k) }) }
func (h *Hooks) SelfHeal(k, reason string) { h.try(func() { h.inner.SelfHeal(k, reason) }) }
func (h *Hooks) SweepPartial(prefix string, deleted, failed int) {
	h.try(func() { h.inner.SweepPartial(prefix, deleted, failed) })
}
func (h *Hooks) QueueDropped(evt string) { h.try(func() { h.inner.QueueDropped(evt) }) }
