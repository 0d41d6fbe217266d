package app

import (
	"sync"
	"testing"
	"time"

	"trivia-session-engine/internal/domain"
)

func TestHubDeliversInitialThenLatest(t *testing.T) {
	h := newHub()
	ch, cancel := h.subscribe("s1", domain.SessionSummary{SessionID: "s1", CurrentIndex: 0})
	defer cancel()

	if got := <-ch; got.CurrentIndex != 0 {
		t.Fatalf("expected initial summary, got %+v", got)
	}
	for i := 1; i <= 20; i++ {
		h.broadcast(domain.SessionSummary{SessionID: "s1", CurrentIndex: i})
	}
	var last domain.SessionSummary
	for len(ch) > 0 {
		last = <-ch
	}
	if last.CurrentIndex != 20 {
		t.Fatalf("expected latest update to survive, got %+v", last)
	}
}

func TestHubSubscribeNeverBlocksUnderBroadcasts(t *testing.T) {
	h := newHub()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				h.broadcast(domain.SessionSummary{SessionID: "s1", CurrentIndex: i})
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, cancel := h.subscribe("s1", domain.SessionSummary{SessionID: "s1"})
			cancel()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("subscribe blocked while updates were broadcast")
	}
	close(stop)
	wg.Wait()
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := newHub()
	ch, cancel := h.subscribe("s1", domain.SessionSummary{SessionID: "s1"})
	<-ch
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// broadcasting to a session without subscribers is a no-op
	h.broadcast(domain.SessionSummary{SessionID: "s1"})
	cancel()
}
