package service

import (
	"encoding/json"
	"log"
)

// Notification events emitted at workflow transitions
const (
	EventManagerDecisionRequested = "manager-decision-requested"
	EventAllManagersApproved      = "all-managers-approved"
	EventFinalDecision            = "final-decision"
)

// Notification is the payload handed to the dispatcher at each workflow
// transition. Delivery mechanics (mail templates, push, ...) live behind the
// Dispatcher; the workflow only produces structured events.
type Notification struct {
	Event     string                 `json:"event"`
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload"`
}

// Dispatcher delivers notifications. Implementations must be best-effort:
// a slow or failing channel never delays or rolls back the state transition
// it follows. Errors are for logging only.
type Dispatcher interface {
	Notify(n Notification) error
}

// LogDispatcher writes notifications to the process log. It stands in for
// the external mail/push delivery collaborator.
type LogDispatcher struct{}

func (LogDispatcher) Notify(n Notification) error {
	payload, _ := json.Marshal(n.Payload)
	log.Printf("notify event=%s recipient=%s payload=%s", n.Event, n.Recipient, payload)
	return nil
}

// Broadcaster is the surface the websocket hub exposes for pushing events to
// connected clients.
type Broadcaster interface {
	GetBroadcast() chan []byte
}

// HubDispatcher pushes notifications to the websocket hub so open dashboards
// update in real time. The send is non-blocking: if the hub is saturated the
// event is dropped, never queued against the workflow.
type HubDispatcher struct {
	Hub Broadcaster
}

func (d HubDispatcher) Notify(n Notification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return err
	}
	select {
	case d.Hub.GetBroadcast() <- msg:
	default:
	}
	return nil
}

// MultiDispatcher fans a notification out to several channels. Failures are
// collected into the log by the caller; one channel failing does not stop
// the others.
type MultiDispatcher []Dispatcher

func (m MultiDispatcher) Notify(n Notification) error {
	var firstErr error
	for _, d := range m {
		if err := d.Notify(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
