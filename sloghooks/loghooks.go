package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/readcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery     uint64
	BackendErrorEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	backendErrCtr atomic.Uint64
}

var _ readcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) EncodeFallback(kind readcache.Kind, scope string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("readcache.encode_fallback",
		"kind", string(kind),
		"scope", scope,
		"err", err)
}

func (h *Hooks) BackendError(op, storageKey string, err error) {
	if h.l == nil || !sample(h.opts.BackendErrorEvery, &h.backendErrCtr) {
		return
	}
	h.l.Warn("readcache.backend_error",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) SetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("readcache.set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("readcache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) SweepPartial(prefix string, deleted, failed int) {
	if h.l == nil {
		return
	}
	h.l.Error("readcache.sweep_partial",
		"prefix", prefix,
		"deleted", deleted,
		"failed", failed)
}

func (h *Hooks) QueueDropped(eventType string) {
	if h.l == nil {
		return
	}
	h.l.Warn("readcache.event_dropped",
		"event", eventType)
}
