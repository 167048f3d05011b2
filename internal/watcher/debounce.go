package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Debounced wraps a Watcher with event debouncing.
// Multiple rapid changes to the same file are coalesced into one event.
type Debounced struct {
	inner Watcher
	delay time.Duration

	mu       sync.Mutex
	pending  map[string]*pendingEvent
	events   chan Event
	errors   chan error
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// pendingEvent tracks a debounced event.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// NewDebounced creates a debounced watcher wrapper.
// Events are delayed by the specified duration and their operations merged.
func NewDebounced(inner Watcher, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	d := &Debounced{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, DefaultBufferSize),
		errors:  make(chan error, DefaultBufferSize),
		closeCh: make(chan struct{}),
	}

	d.closedWg.Add(1)
	go d.processLoop()

	return d
}

// Watch starts watching a file.
func (d *Debounced) Watch(path string) error {
	return d.inner.Watch(path)
}

// Unwatch stops watching a file.
func (d *Debounced) Unwatch(path string) error {
	return d.inner.Unwatch(path)
}

// IsWatching returns true if the file is being watched.
func (d *Debounced) IsWatching(path string) bool {
	return d.inner.IsWatching(path)
}

// Events returns the debounced event channel.
func (d *Debounced) Events() <-chan Event {
	return d.events
}

// Errors returns the error channel.
func (d *Debounced) Errors() <-chan error {
	return d.errors
}

// Close stops the debounced watcher and the inner watcher.
func (d *Debounced) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closeCh)

	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
	d.mu.Unlock()

	d.closedWg.Wait()

	// A timer that already fired sees closed under mu and does not send.
	d.mu.Lock()
	close(d.events)
	close(d.errors)
	d.mu.Unlock()

	return d.inner.Close()
}

// processLoop handles incoming events from the inner watcher.
func (d *Debounced) processLoop() {
	defer d.closedWg.Done()

	innerEvents := d.inner.Events()
	innerErrors := d.inner.Errors()

	for {
		select {
		case <-d.closeCh:
			return

		case event, ok := <-innerEvents:
			if !ok {
				return
			}
			d.handleEvent(event)

		case err, ok := <-innerErrors:
			if !ok {
				innerErrors = nil
				continue
			}
			d.forwardError(err)
		}
	}
}

// handleEvent processes an incoming event with debouncing.
func (d *Debounced) handleEvent(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if p, exists := d.pending[event.Path]; exists {
		p.event.Op |= event.Op
		p.event.Timestamp = event.Timestamp
		p.timer.Reset(d.delay)
		return
	}

	path := event.Path
	d.pending[path] = &pendingEvent{
		event: event,
		timer: time.AfterFunc(d.delay, func() {
			d.fireEvent(path)
		}),
	}
}

// fireEvent sends a pending event and removes it from the map.
func (d *Debounced) fireEvent(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, exists := d.pending[path]
	if !exists || d.closed {
		return
	}
	delete(d.pending, path)

	select {
	case d.events <- p.event:
	default:
		// Channel full, drop event
	}
}

// forwardError forwards an error from the inner watcher.
func (d *Debounced) forwardError(err error) {
	select {
	case d.errors <- err:
	case <-d.closeCh:
	default:
		// Channel full, drop error
	}
}

// Ensure Debounced implements Watcher.
var _ Watcher = (*Debounced)(nil)
