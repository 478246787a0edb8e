package store

import (
	"context"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/search"
	"sync"
	"time"
)

const (
	report_persister_submit = "persister.submit"
	report_persister_write  = "persister.write"

	DefaultQueueSize = 64
	writeTimeout     = 15 * time.Second
)

// ListingWriter is the part of Store the persister needs.
//
// note: fault injection point
type ListingWriter interface {
	UpsertListings(ctx context.Context, listings []search.Listing) error
}

// Persister writes listings in the background so that searches never wait on
// storage. Failed writes are reported and dropped.
type Persister struct {
	writer ListingWriter
	tel    telemetry.API
	queue  chan []search.Listing
	done   chan struct{}

	mutex  sync.RWMutex
	closed bool
}

// NewPersister starts the worker goroutine. A queueSize <= 0 uses DefaultQueueSize.
func NewPersister(writer ListingWriter, queueSize int, tel telemetry.API) *Persister {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Persister{
		writer: writer,
		tel:    telemetry.NewScopedAPI("store", tel),
		queue:  make(chan []search.Listing, queueSize),
		done:   make(chan struct{}),
	}
	go p.work()
	return p
}

func (p *Persister) work() {
	defer close(p.done)
	for batch := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.UpsertListings(ctx, batch)
		cancel()
		if err != nil {
			p.tel.ReportBroken(report_persister_write, &search.PersistenceError{Op: "upsert listings", Err: err}, len(batch))
			continue
		}
		p.tel.ReportCount(report_persister_write, int64(len(batch)))
	}
}

// Submit queues listings for writing without blocking, the batch is dropped when
// the queue is full or the persister is closed.
func (p *Persister) Submit(listings []search.Listing) {
	if len(listings) == 0 {
		return
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if p.closed {
		p.tel.ReportWarning(report_persister_submit, "submit after close", len(listings))
		return
	}

	select {
	case p.queue <- listings:
	default:
		p.tel.ReportBroken(report_persister_submit, &search.PersistenceError{Op: "enqueue", Err: errQueueFull}, len(listings))
	}
}

// Close stops accepting listings and waits for the queue to drain.
func (p *Persister) Close() {
	p.mutex.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mutex.Unlock()
	<-p.done
}
