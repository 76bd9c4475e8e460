package socialauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples engine hot paths from sink latency. A slow sink
// costs dropped events, never blocked logins.
type auditDispatcher struct {
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(buffer int, sink AuditSink) *auditDispatcher {
	if sink == nil {
		return nil
	}
	if buffer <= 0 {
		buffer = 1
	}

	d := &auditDispatcher{
		sink: sink,
		ch:   make(chan AuditEvent, buffer),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			// Drain whatever was queued before Close.
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (d *auditDispatcher) emit(event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}

	select {
	case d.ch <- event:
	case <-d.done:
	default:
		d.dropped.Add(1)
	}
}

func (d *auditDispatcher) close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *auditDispatcher) droppedCount() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
