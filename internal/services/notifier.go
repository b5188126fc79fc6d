package services

// Notifier delivers an event to a live connection. The websocket hub
// implements it; tests supply a fake. Delivery is at-most-once: a failed
// send is reported to the caller and never retried.
type Notifier interface {
	Send(connID string, event string, payload interface{}) error
}
