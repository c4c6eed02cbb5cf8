package trigger

import (
	"testing"
	"time"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestBroadcastForwardsToInnerAndSubscribers(t *testing.T) {
	inner := &recordingPublisher{}
	b := NewBroadcast(inner)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	ev := Event{Kind: KindStart, Source: SourceAppFocus, At: time.Now(), Detail: "Zoom"}
	if err := b.Publish(ev); err != nil {
		t.Fatal(err)
	}
	if len(inner.events) != 1 {
		t.Fatalf("inner publisher got %d events", len(inner.events))
	}

	select {
	case got := <-sub:
		if got.Detail != "Zoom" {
			t.Errorf("subscriber got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received event")
	}
}

func TestBroadcastPropagatesInnerError(t *testing.T) {
	inner := &recordingPublisher{err: errSentinel}
	b := NewBroadcast(inner)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	if err := b.Publish(Event{Kind: KindStop, At: time.Now()}); err != errSentinel {
		t.Errorf("expected inner error back, got %v", err)
	}
	// The event still fans out; the websocket stream is observability,
	// not the durable record.
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("subscriber should still receive the event")
	}
}

func TestBroadcastSkipsFullSubscriber(t *testing.T) {
	inner := &recordingPublisher{}
	b := NewBroadcast(inner)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Fill the buffer and one more; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(sub)+5; i++ {
			_ = b.Publish(Event{Kind: KindStart, At: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcast(&recordingPublisher{})
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Error("unsubscribed channel should be closed")
	}
	// Double unsubscribe is a no-op.
	b.Unsubscribe(sub)
}

var errSentinel = errSentinelType{}

type errSentinelType struct{}

func (errSentinelType) Error() string { return "sentinel" }
