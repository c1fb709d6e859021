package session

// StopNotification is enqueued exactly once per session lifetime, on every
// exit path from the receive loop (spec §6, §7), to the channel passed with
// WithNotify; without one it is not sent anywhere. v2gsimd wires no such
// channel: internal/registry.Registry drops a terminated session when its
// Observer.SessionStopped is called.
type StopNotification struct {
	Successful bool
	Reason     string
	Peer       string
}
