// Package progress implements the session-scoped progress bus shared by all
// running pipelines. Producers publish without ever blocking permanently;
// each subscriber gets its own filtered, FIFO view of one session. There is
// no replay buffer: a late subscriber only sees events published after it
// attached.
package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/entity"
	"tokvault/internal/observability"
)

// Bus is a process-wide multi-producer/multi-consumer channel of progress
// events. The zero value is not usable; construct with New.
type Bus struct {
	log         *slog.Logger
	metrics     *observability.Metrics
	buffer      int
	idleTimeout time.Duration

	mu   sync.RWMutex
	subs map[string][]*subscriber
}

type subscriber struct {
	ch chan entity.ProgressEvent
}

// New creates a progress bus.
func New(log *slog.Logger, cfg config.Bus, metrics *observability.Metrics) *Bus {
	buffer := cfg.Buffer
	if buffer < 1 {
		buffer = 1
	}

	return &Bus{
		log:         log.With(slog.String("package", "progress")),
		metrics:     metrics,
		buffer:      buffer,
		idleTimeout: cfg.IdleTimeout,
		subs:        make(map[string][]*subscriber),
	}
}

// Publish delivers an event to the session's subscribers alive right now.
// It never blocks the producer: a subscriber whose buffer is full loses this
// event, which is counted and logged. Events published with no subscriber
// attached are dropped silently; there is no replay.
func (b *Bus) Publish(ctx context.Context, session, message string, terminal bool) {
	ev := entity.ProgressEvent{
		Session:  session,
		Message:  message,
		Terminal: terminal,
	}

	b.mu.RLock()
	subs := b.subs[session]

	dropped := 0

	for _, sub := range subs {
		select {
		case sub.ch <- ev:
		default:
			dropped++
		}
	}
	b.mu.RUnlock()

	b.metrics.RecordBusPublish(dropped)

	if dropped > 0 {
		b.log.DebugContext(ctx, "events dropped for slow subscribers",
			slog.String("session", session),
			slog.Int("dropped", dropped))
	}
}

// Subscribe attaches to a session and returns a channel of its events, in
// publish order. The channel is closed when a terminal event has been
// delivered, when no matching event arrives within the idle timeout, or
// when ctx is done. Closing only stops listening; it never stops the job.
func (b *Bus) Subscribe(ctx context.Context, session string) <-chan entity.ProgressEvent {
	sub := &subscriber{ch: make(chan entity.ProgressEvent, b.buffer)}

	b.mu.Lock()
	b.subs[session] = append(b.subs[session], sub)
	b.mu.Unlock()

	b.metrics.RecordSubscriberAttached()

	out := make(chan entity.ProgressEvent)

	go b.forward(ctx, session, sub, out)

	return out
}

func (b *Bus) forward(ctx context.Context, session string, sub *subscriber, out chan<- entity.ProgressEvent) {
	defer close(out)
	defer b.detach(session, sub)

	idle := time.NewTimer(b.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			b.log.Debug("subscriber idle timeout", slog.String("session", session))

			return
		case ev := <-sub.ch:
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}

			if ev.Terminal {
				return
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(b.idleTimeout)
		}
	}
}

func (b *Bus) detach(session string, sub *subscriber) {
	b.mu.Lock()

	subs := b.subs[session]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)

			break
		}
	}

	if len(subs) == 0 {
		delete(b.subs, session)
	} else {
		b.subs[session] = subs
	}

	b.mu.Unlock()

	b.metrics.RecordSubscriberDetached()
}
