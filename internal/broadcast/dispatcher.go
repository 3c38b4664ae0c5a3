// Package broadcast delivers auth-state snapshots from the identity service
// to its subscribers, in emission order, on a single dispatcher goroutine.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/caldermed/medauth/internal/repo"
)

// Snapshot is one published auth state: the authenticated user, session, and
// profile, or all nil after sign-out.
type Snapshot struct {
	User    *repo.UserRecord
	Session *repo.SessionRecord
	Profile *repo.ProfileRecord
}

// Dispatcher fans Snapshots out to every registered listener. Delivery
// happens on one goroutine, so all listeners observe events in the order
// they were published and no listener ever runs concurrently with itself.
type Dispatcher struct {
	ch   chan Snapshot
	done chan struct{}
	wg   sync.WaitGroup

	mu        sync.Mutex
	listeners map[string]func(Snapshot)

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher describes the newdispatcher operation and its observable behavior.
func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 16
	}

	d := &Dispatcher{
		ch:        make(chan Snapshot, buffer),
		done:      make(chan struct{}),
		listeners: map[string]func(Snapshot){},
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case snap := <-d.ch:
			d.deliver(snap)
		case <-d.done:
			for {
				select {
				case snap := <-d.ch:
					d.deliver(snap)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(snap Snapshot) {
	d.mu.Lock()
	fns := make([]func(Snapshot), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Subscribe registers fn and returns a disposer removing exactly this
// registration. Listener identity is an opaque handle, so two subscriptions
// of the same function remain independent.
func (d *Dispatcher) Subscribe(fn func(Snapshot)) func() {
	key := uuid.NewString()

	d.mu.Lock()
	d.listeners[key] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, key)
	}
}

// Publish enqueues snap for delivery. Publishing after Close is a no-op.
func (d *Dispatcher) Publish(snap Snapshot) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- snap:
	case <-d.done:
	}
}

// Close stops the dispatcher after draining queued snapshots.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
