package viewer

import "sync"

// Dispatcher queues closures posted from loader goroutines and timers and
// runs them on the frame loop. Only Pump's caller mutates viewer state.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	notify chan struct{}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{notify: make(chan struct{}, 1)}
}

// Post queues fn for the next Pump. It returns false once the dispatcher is closed.
// Safe for concurrent use.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
	return true
}

// Ready is signalled after a Post. Frame loops that block on events may select on it.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.notify
}

// Pump runs the closures queued so far, in post order, and returns how many ran.
// Closures posted while pumping run on the next call.
func (d *Dispatcher) Pump() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	n := 0
	for _, fn := range batch {
		if d.Closed() {
			break
		}
		fn()
		n++
	}
	return n
}

// Pending returns the number of queued closures.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Close drops queued closures and rejects future posts.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}

// Closed reports whether Close was called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
