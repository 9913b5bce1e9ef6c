package notify

import (
	"testing"
	"time"
)

func TestHubFanout(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe(4)
	b, cancelB := h.Subscribe(4)
	defer cancelA()
	defer cancelB()

	h.Publish(Event{Type: EventQuestionOpened, QuestionID: 7})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != EventQuestionOpened || ev.QuestionID != 7 || ev.At.IsZero() {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event")
		}
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	_, cancel := h.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(Event{Type: EventLeaderboardChanged})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow subscriber")
	}
	if h.Dropped() != 9 {
		t.Fatalf("expected 9 dropped, got %d", h.Dropped())
	}
}

func TestHubCancel(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(1)
	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	h.Publish(Event{Type: EventQuestionClosed})
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: EventQuestionClosed})
}
