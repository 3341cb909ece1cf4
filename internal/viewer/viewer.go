package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// ErrClosed is returned when navigating a viewer that has been torn down
var ErrClosed = errors.New("viewer is closed")

// Loader fetches a published record. It returns domain.ErrContentNotFound
// when no record exists for id.
type Loader interface {
	GetContent(ctx context.Context, id string) (*domain.ContentRecord, error)
}

// Observer is told about every fetch outcome, including discarded ones
type Observer interface {
	Resolved(snap Snapshot, elapsed time.Duration)
	Discarded(id string)
}

// State is the lifecycle state of a detail view
type State int

const (
	Loading State = iota
	Loaded
	NotFound
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of the viewer state. Record is set only
// when State is Loaded. Err is set when a NotFound came from a failing
// loader rather than a missing record.
type Snapshot struct {
	ID         string
	State      State
	Record     *domain.ContentRecord
	Err        error
	Generation uint64
}

// Missing reports whether the record does not exist, as opposed to the
// loader failing
func (s Snapshot) Missing() bool {
	return s.State == NotFound && (s.Err == nil || errors.Is(s.Err, domain.ErrContentNotFound))
}

// Option configures a Viewer
type Option func(*Viewer)

// WithFetchTimeout bounds every fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(v *Viewer) { v.fetchTimeout = d }
}

// WithObserver registers an observer for fetch outcomes
func WithObserver(o Observer) Option {
	return func(v *Viewer) { v.observer = o }
}

// Viewer drives the detail view of one article or video. Every Navigate
// starts a new generation; results from older generations are dropped.
type Viewer struct {
	loader       Loader
	logger       *logger.Logger
	fetchTimeout time.Duration
	observer     Observer

	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{} // closed once the current generation settles
	closed bool

	wg sync.WaitGroup
}

// New creates a viewer in the Loading state
func New(loader Loader, log *logger.Logger, opts ...Option) *Viewer {
	v := &Viewer{
		loader: loader,
		logger: log.WithComponent("viewer"),
		snap:   Snapshot{State: Loading},
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Navigate shows the record identified by id. Any fetch still in flight is
// cancelled and its result will be discarded.
func (v *Viewer) Navigate(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}

	if v.cancel != nil {
		v.cancel()
	}
	if v.snap.State == Loading {
		close(v.done)
	}

	v.gen++
	gen := v.gen
	v.snap = Snapshot{ID: id, State: Loading, Generation: gen}
	v.done = make(chan struct{})

	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if v.fetchTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, v.fetchTimeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	v.cancel = cancel

	v.wg.Add(1)
	go v.fetch(fetchCtx, cancel, gen, id)

	return nil
}

func (v *Viewer) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, id string) {
	defer v.wg.Done()
	defer cancel()

	start := time.Now()
	record, err := v.loader.GetContent(ctx, id)
	if err == nil && record == nil {
		err = domain.ErrContentNotFound
	}

	snap, ok := v.resolve(gen, id, record, err)
	if !ok {
		v.logger.Debug("Discarding stale content response", "content_id", id, "generation", gen)
		if v.observer != nil {
			v.observer.Discarded(id)
		}
		return
	}

	if snap.Err != nil && !snap.Missing() {
		v.logger.Warn("Content fetch failed", "content_id", id, "error", snap.Err)
	}
	if v.observer != nil {
		v.observer.Resolved(snap, time.Since(start))
	}
}

// resolve stores a fetch result if it still belongs to the current generation
func (v *Viewer) resolve(gen uint64, id string, record *domain.ContentRecord, err error) (Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || gen != v.gen {
		return Snapshot{}, false
	}

	snap := Snapshot{ID: id, Generation: gen}
	if err != nil {
		snap.State = NotFound
		snap.Err = err
	} else {
		snap.State = Loaded
		snap.Record = record
	}
	v.snap = snap
	v.cancel = nil
	close(v.done)

	return snap, true
}

// Snapshot returns the current state
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Wait blocks until the current navigation leaves Loading, the viewer is
// closed, or ctx is done. A Navigate issued while waiting moves the wait on
// to the new generation.
func (v *Viewer) Wait(ctx context.Context) (Snapshot, error) {
	for {
		v.mu.Lock()
		snap, done, closed := v.snap, v.done, v.closed
		v.mu.Unlock()

		if snap.State != Loading || closed {
			return snap, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Close tears the viewer down. Pending fetches are cancelled and their
// results never reach the snapshot.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.snap.State == Loading {
		close(v.done)
	}
	v.mu.Unlock()

	v.wg.Wait()
}
