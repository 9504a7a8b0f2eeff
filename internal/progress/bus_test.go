package progress

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"testing/synctest"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/entity"
)

const (
	testSessionA = "session-a"
	testSessionB = "session-b"
)

func newTestBus(buffer int, idle time.Duration) *Bus {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return New(log, config.Bus{Buffer: buffer, IdleTimeout: idle}, nil)
}

// drain collects events until the subscription channel closes.
func drain(ch <-chan entity.ProgressEvent) []entity.ProgressEvent {
	var got []entity.ProgressEvent
	for ev := range ch {
		got = append(got, ev)
	}

	return got
}

func TestSubscribeOrderAndTerminal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(16, time.Minute)

		ch := bus.Subscribe(t.Context(), testSessionA)
		synctest.Wait()

		bus.Publish(t.Context(), testSessionA, "first", false)
		bus.Publish(t.Context(), testSessionA, "second", false)
		bus.Publish(t.Context(), testSessionA, "Done!", true)

		got := drain(ch)

		want := []string{"first", "second", "Done!"}
		if len(got) != len(want) {
			t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
		}
		for i, ev := range got {
			if ev.Message != want[i] {
				t.Errorf("event %d: expected %q, got %q", i, want[i], ev.Message)
			}
		}
		if !got[len(got)-1].Terminal {
			t.Errorf("expected last event to be terminal")
		}
	})
}

func TestSessionIsolation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(16, time.Minute)

		chA := bus.Subscribe(t.Context(), testSessionA)
		chB := bus.Subscribe(t.Context(), testSessionB)
		synctest.Wait()

		bus.Publish(t.Context(), testSessionA, "only for a", false)
		bus.Publish(t.Context(), testSessionA, "Done!", true)
		bus.Publish(t.Context(), testSessionB, "Done!", true)

		gotA := drain(chA)
		gotB := drain(chB)

		if len(gotA) != 2 {
			t.Errorf("expected 2 events for session a, got %v", gotA)
		}
		if len(gotB) != 1 || gotB[0].Message != "Done!" {
			t.Errorf("expected only the terminal event for session b, got %v", gotB)
		}
	})
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := newTestBus(16, time.Minute)

	// Must return immediately; there is no replay buffer to fill.
	bus.Publish(t.Context(), testSessionA, "nobody listening", false)
	bus.Publish(t.Context(), testSessionA, "Done!", true)
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(1, time.Minute)

		ch := bus.Subscribe(t.Context(), testSessionA)
		synctest.Wait()

		// The subscriber is not reading: one event sits in the forwarder's
		// hand-off, one in the buffer, the rest overflow and are dropped.
		for i := range 50 {
			bus.Publish(t.Context(), testSessionA, "event", i == 49)
		}

		got := drain(ch)
		if len(got) >= 50 {
			t.Errorf("expected overflow events to be dropped, got %d", len(got))
		}
	})
}

func TestSubscribeIdleTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(16, time.Minute)

		ch := bus.Subscribe(t.Context(), testSessionA)
		synctest.Wait()

		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("expected no events before timeout")
			}
		default:
		}

		time.Sleep(time.Minute + time.Second)
		synctest.Wait()

		if _, ok := <-ch; ok {
			t.Errorf("expected channel closed after idle timeout")
		}
	})
}

func TestSubscribeIdleTimerResets(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(16, time.Minute)

		ch := bus.Subscribe(t.Context(), testSessionA)
		synctest.Wait()

		// Keep the stream alive past the original deadline.
		for range 3 {
			time.Sleep(40 * time.Second)
			bus.Publish(t.Context(), testSessionA, "tick", false)

			if ev, ok := <-ch; !ok || ev.Message != "tick" {
				t.Fatalf("expected tick event, got %v (open=%v)", ev, ok)
			}
		}

		bus.Publish(t.Context(), testSessionA, "Done!", true)

		got := drain(ch)
		if len(got) != 1 || !got[0].Terminal {
			t.Errorf("expected single terminal event, got %v", got)
		}
	})
}

func TestSubscribeContextCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		bus := newTestBus(16, time.Minute)

		ctx, cancel := context.WithCancel(t.Context())

		ch := bus.Subscribe(ctx, testSessionA)
		synctest.Wait()

		cancel()
		synctest.Wait()

		if _, ok := <-ch; ok {
			t.Errorf("expected channel closed after context cancel")
		}

		// Detached subscriber: publishing must not panic or block.
		bus.Publish(t.Context(), testSessionA, "after cancel", false)
	})
}
