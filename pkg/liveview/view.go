// Package liveview keeps a client-side materialized map consistent with the
// server's authoritative store. Each View pairs a point-in-time snapshot
// fetch with a concurrent stream of change events: while the fetch is
// outstanding every event is buffered, and once the snapshot is materialized
// the buffer is replayed in receipt order. A reconnect forces a fresh
// snapshot, since events emitted during the gap are unrecoverable from the
// stream.
package liveview

import (
	"context"
	"sort"
	"sync"
	"time"

	"salesync/internal/domain/sales"
	"salesync/pkg/logger"
)

// ViewState is the lifecycle state of a View.
type ViewState int32

const (
	StateIdle ViewState = iota
	StateConnecting
	StateSyncing
	StateLive
	StateClosed
)

func (s ViewState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSyncing:
		return "syncing"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const defaultRetryDelay = 2 * time.Second

// ViewConfig configures a View.
type ViewConfig[T any] struct {
	// Name identifies the view in logs.
	Name string

	// KeyOf extracts the entity id. Required.
	KeyOf func(T) int

	// InScope reports whether a payload belongs to this view. Nil means
	// everything is in scope. Out-of-scope events are discarded on apply.
	InScope func(T) bool

	// Fetch retrieves the full snapshot for the view's scope. Required.
	Fetch func(context.Context) ([]T, error)

	// RetryDelay between failed snapshot fetches.
	RetryDelay time.Duration

	Logger *logger.Logger
}

// View is one reconciliation engine instance: a locally materialized map
// kept consistent with the store via snapshot fetch plus event replay.
// All sync triggers (open, reconnect, rescope) are serialized through a
// single goroutine, so at most one fetch is logically in flight; a stale
// fetch's result is discarded by generation check, never interleaved.
type View[T any] struct {
	name       string
	log        *logger.Logger
	retryDelay time.Duration

	mu      sync.Mutex
	state   ViewState
	keyOf   func(T) int
	inScope func(T) bool
	fetch   func(context.Context) ([]T, error)
	entries map[int]T
	buffer  []sales.Change[T]
	gen     uint64

	triggers chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewView creates a View in the Idle state. Call Start to begin syncing.
func NewView[T any](cfg ViewConfig[T]) *View[T] {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = defaultRetryDelay
	}
	return &View[T]{
		name:       cfg.Name,
		log:        log.WithComponent("liveview").With("view", cfg.Name),
		retryDelay: retry,
		state:      StateIdle,
		keyOf:      cfg.KeyOf,
		inScope:    cfg.InScope,
		fetch:      cfg.Fetch,
		entries:    make(map[int]T),
		// Buffer of one coalesces bursts of triggers: a pending trigger
		// already guarantees a fresh fetch will run.
		triggers: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the sync loop. The view stays Connecting until the first
// Resync trigger (normally fired by the stream's connect signal).
func (v *View[T]) Start(ctx context.Context) {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return
	}
	v.state = StateConnecting
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.mu.Unlock()

	go v.run()
}

// Resync requests a fresh snapshot fetch. Never blocks; triggers arriving
// while a fetch is outstanding coalesce into one follow-up sync.
func (v *View[T]) Resync() {
	select {
	case v.triggers <- struct{}{}:
	default:
	}
}

// OnEvent feeds one change event from the stream. Must not block: during a
// snapshot fetch it only appends to the buffer. Events arriving before the
// first sync begins are dropped, because the upcoming snapshot is taken
// after them and already reflects them.
func (v *View[T]) OnEvent(ev sales.Change[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case StateSyncing:
		v.buffer = append(v.buffer, ev)
	case StateLive:
		v.applyLocked(ev)
	default:
		// Idle, Connecting, Closed: no baseline to apply against.
	}
}

// Rescope atomically retargets the view (e.g. a different customer was
// selected): the in-flight fetch result is invalidated, stale buffered
// events are cleared, the old map is discarded and a fresh fetch starts.
func (v *View[T]) Rescope(fetch func(context.Context) ([]T, error), inScope func(T) bool) {
	v.mu.Lock()
	if v.state == StateClosed {
		v.mu.Unlock()
		return
	}
	v.gen++
	v.fetch = fetch
	v.inScope = inScope
	v.entries = make(map[int]T)
	v.buffer = v.buffer[:0]
	if v.state == StateLive {
		v.state = StateSyncing
	}
	v.mu.Unlock()

	v.Resync()
}

// Close tears the view down. Idempotent.
func (v *View[T]) Close() {
	v.mu.Lock()
	if v.state == StateClosed {
		v.mu.Unlock()
		return
	}
	cancel := v.cancel
	started := cancel != nil
	v.state = StateClosed
	v.mu.Unlock()

	if started {
		cancel()
		<-v.done
	} else {
		close(v.done)
	}
}

// State returns the current lifecycle state.
func (v *View[T]) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Get returns the entity with the given id, if present.
func (v *View[T]) Get(id int) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	item, ok := v.entries[id]
	return item, ok
}

// Items returns a copy of the local map, ordered by id. Never blocks event
// delivery for longer than the copy.
func (v *View[T]) Items() []T {
	v.mu.Lock()
	keys := make([]int, 0, len(v.entries))
	for k := range v.entries {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, v.entries[k])
	}
	v.mu.Unlock()
	return out
}

// Len returns the size of the local map.
func (v *View[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// --- internals ---

func (v *View[T]) run() {
	defer close(v.done)
	for {
		select {
		case <-v.ctx.Done():
			v.mu.Lock()
			v.state = StateClosed
			v.mu.Unlock()
			return
		case <-v.triggers:
			v.syncOnce()
		}
	}
}

// syncOnce performs one snapshot fetch plus buffered replay. It runs only
// on the run goroutine, so fetches never overlap; the generation check
// discards a result superseded by a Rescope that happened mid-fetch.
func (v *View[T]) syncOnce() {
	v.mu.Lock()
	if v.state == StateClosed {
		v.mu.Unlock()
		return
	}
	v.gen++
	gen := v.gen
	v.state = StateSyncing
	// Anything received before this point is covered by the snapshot
	// about to be taken.
	v.buffer = v.buffer[:0]
	fetch := v.fetch
	v.mu.Unlock()

	items, err := fetch(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateClosed {
		return
	}
	if gen != v.gen {
		v.log.Debugw("snapshot superseded", "gen", gen)
		return
	}
	if err != nil {
		if v.ctx.Err() != nil {
			return
		}
		v.log.Warnw("snapshot fetch failed, retrying",
			"error", err, "retry_in", v.retryDelay)
		time.AfterFunc(v.retryDelay, v.Resync)
		return
	}

	fresh := make(map[int]T, len(items))
	for _, item := range items {
		if v.inScope != nil && !v.inScope(item) {
			continue
		}
		fresh[v.keyOf(item)] = item
	}
	v.entries = fresh

	// Replay in receipt order. Replay is idempotent per id: a buffered
	// event may describe a change the snapshot already reflects.
	replayed := len(v.buffer)
	for _, ev := range v.buffer {
		v.applyLocked(ev)
	}
	v.buffer = v.buffer[:0]
	v.state = StateLive

	v.log.Debugw("view synced", "entries", len(v.entries), "replayed", replayed)
}

// applyLocked applies one event to the local map. Caller holds v.mu.
func (v *View[T]) applyLocked(ev sales.Change[T]) {
	if v.inScope != nil && !v.inScope(ev.Payload) {
		return
	}
	key := v.keyOf(ev.Payload)
	switch ev.Kind {
	case sales.Deleted:
		delete(v.entries, key)
	default:
		v.entries[key] = ev.Payload
	}
}
