package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/meeting-sentinel/internal/monitor"
	"github.com/GriffinCanCode/meeting-sentinel/internal/trigger"
)

type fakeState struct {
	snap monitor.Snapshot
}

func (f *fakeState) Snapshot() monitor.Snapshot { return f.snap }

type nopPublisher struct{}

func (nopPublisher) Publish(trigger.Event) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *fakeState, *trigger.Broadcast) {
	t.Helper()
	state := &fakeState{snap: monitor.Snapshot{Monitor: "app-focus", Active: true, CurrentApp: "Zoom"}}
	events := trigger.NewBroadcast(nopPublisher{})
	ts := httptest.NewServer(New(state, events).Handler())
	t.Cleanup(ts.Close)
	return ts, state, events
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var snap monitor.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.Active || snap.CurrentApp != "Zoom" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/status", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestWebSocketStreamsTransitions(t *testing.T) {
	ts, _, events := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseNow()

	// First frame is the current state.
	var status StatusMessage
	if err := wsjson.Read(ctx, c, &status); err != nil {
		t.Fatal(err)
	}
	if status.Type != "status" || status.State.Monitor != "app-focus" {
		t.Errorf("unexpected status frame %+v", status)
	}

	// The server subscribes right after sending the status frame; give
	// it a moment before publishing.
	time.Sleep(100 * time.Millisecond)

	at := time.Unix(1700000000, 0)
	if err := events.Publish(trigger.Event{Kind: trigger.KindStart, Source: trigger.SourceAppFocus, At: at, Detail: "Zoom"}); err != nil {
		t.Fatal(err)
	}

	var transition TransitionMessage
	if err := wsjson.Read(ctx, c, &transition); err != nil {
		t.Fatal(err)
	}
	if transition.Type != "transition" || transition.Kind != "start" || transition.Detail != "Zoom" {
		t.Errorf("unexpected transition frame %+v", transition)
	}
	if transition.At != float64(at.Unix()) {
		t.Errorf("expected epoch %d, got %v", at.Unix(), transition.At)
	}
}
