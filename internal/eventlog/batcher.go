package eventlog

import (
	"time"

	"github.com/rishav/hft-trade-core/internal/logging"
)

// Batcher queues events off the trade engine's hot path and writes them
// to a Log in batches, trading a small amount of durability latency for
// far fewer syscalls (spec.md §5: "1x logging writer (off the hot
// path)"). Grounded on the teacher's internal/disruptor/batcher.go:
// channel-buffered queue, size-or-timeout flush, drop-on-full instead of
// blocking the producer.
type Batcher struct {
	log           *Log
	queue         chan Event
	batchSize     int
	flushInterval time.Duration
	sink          logging.Sink

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewBatcher constructs a Batcher writing to log. batchSize events or
// flushInterval elapsed, whichever comes first, triggers a flush.
func NewBatcher(log *Log, batchSize int, flushInterval time.Duration, sink logging.Sink) *Batcher {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Millisecond
	}
	if sink == nil {
		sink = logging.Nop
	}
	return &Batcher{
		log:           log,
		queue:         make(chan Event, batchSize*2),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		sink:          sink,
		shutdownCh:    make(chan struct{}),
		shutdownDone:  make(chan struct{}),
	}
}

// Start launches the batching goroutine.
func (b *Batcher) Start() {
	go b.run()
}

func (b *Batcher) run() {
	defer close(b.shutdownDone)

	batch := make([]Event, 0, b.batchSize)
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-b.queue:
			batch = append(batch, ev)
			if len(batch) >= b.batchSize {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(batch)
				batch = batch[:0]
			}

		case <-b.shutdownCh:
			if len(batch) > 0 {
				b.flush(batch)
			}
			for {
				select {
				case ev := <-b.queue:
					if _, err := b.log.Append(ev); err != nil {
						b.sink.Errorf("eventlog: drain append failed: %v", err)
					}
				default:
					return
				}
			}
		}
	}
}

func (b *Batcher) flush(batch []Event) {
	for _, ev := range batch {
		if _, err := b.log.Append(ev); err != nil {
			b.sink.Errorf("eventlog: append failed: %v", err)
		}
	}
}

// Queue enqueues an event for batched writing. Non-blocking: if the
// queue is full the event is dropped and logged, never holding up the
// caller (which may be the trade engine thread itself for a moment
// during a dispatch, so this must never block).
func (b *Batcher) Queue(ev Event) {
	select {
	case b.queue <- ev:
	default:
		b.sink.Warnf("eventlog: queue full, dropping %s event for order %d", ev.Kind, ev.OrderId)
	}
}

// Shutdown flushes remaining events and waits for the batcher goroutine
// to exit.
func (b *Batcher) Shutdown() {
	close(b.shutdownCh)
	<-b.shutdownDone
}
