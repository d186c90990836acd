package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	ch chan []byte
}

func (f *fakeBroadcaster) GetBroadcast() chan []byte { return f.ch }

type failingDispatcher struct{ err error }

func (d failingDispatcher) Notify(Notification) error { return d.err }

type recordingDispatcher struct{ got []Notification }

func (d *recordingDispatcher) Notify(n Notification) error {
	d.got = append(d.got, n)
	return nil
}

func TestHubDispatcherDeliversSerializedEvent(t *testing.T) {
	hub := &fakeBroadcaster{ch: make(chan []byte, 1)}
	d := HubDispatcher{Hub: hub}

	n := Notification{
		Event:     EventAllManagersApproved,
		Recipient: "hr",
		Payload:   map[string]interface{}{"series": "LR-TEST"},
	}
	require.NoError(t, d.Notify(n))

	var decoded Notification
	require.NoError(t, json.Unmarshal(<-hub.ch, &decoded))
	assert.Equal(t, EventAllManagersApproved, decoded.Event)
	assert.Equal(t, "hr", decoded.Recipient)
	assert.Equal(t, "LR-TEST", decoded.Payload["series"])
}

func TestHubDispatcherDropsWhenSaturated(t *testing.T) {
	// Unbuffered channel with no reader: the send must not block
	hub := &fakeBroadcaster{ch: make(chan []byte)}
	d := HubDispatcher{Hub: hub}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Notify(Notification{Event: EventFinalDecision})
	}()
	<-done
}

func TestMultiDispatcherContinuesPastFailures(t *testing.T) {
	rec := &recordingDispatcher{}
	failure := errors.New("smtp down")
	m := MultiDispatcher{failingDispatcher{err: failure}, rec}

	err := m.Notify(Notification{Event: EventManagerDecisionRequested})
	assert.ErrorIs(t, err, failure)
	require.Len(t, rec.got, 1) // the failing channel did not stop the next one
}
