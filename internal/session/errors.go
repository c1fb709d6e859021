package session

import "errors"

// Sentinel errors for the session-machine error taxonomy (spec §7),
// matching the teacher's sentinel-error idiom (internal/config/config.go,
// internal/bfd/session.go). A receive-loop failure reported by Machine
// wraps ErrMessageProcessing, ErrDecoding or ErrFaultyStateImplementation;
// a failed write is reported unwrapped. A read timeout or a peer close
// ends the loop through a StopNotification rather than an error, so
// Machine itself returns neither ErrTimeout nor ErrPeerClosed.
var (
	// ErrMessageProcessing covers a failed read or read-deadline setup,
	// and a transport frame that fails V2GTP decoding or is not legal
	// before protocol negotiation.
	ErrMessageProcessing = errors.New("session: message processing error")

	// ErrDecoding covers an EXI decode failure under the selected
	// namespace. Fatal: the payload could not be identified, so no
	// negative response is emitted.
	ErrDecoding = errors.New("session: EXI decoding error")

	// ErrFaultyStateImplementation is raised when a State violates
	// invariant 1 (spec §3): it returned without setting Terminate and
	// without producing an outbound frame.
	ErrFaultyStateImplementation = errors.New("session: faulty state implementation")

	// ErrTimeout names the condition of no inbound bytes arriving within
	// the current state's timeout budget. Machine reports that condition
	// as an unsuccessful StopNotification, not as this error.
	ErrTimeout = errors.New("session: read timeout")

	// ErrPeerClosed names the condition of the peer closing its write
	// side (EOF) before the session reached Terminate or Pause. Machine
	// reports that condition as a StopNotification, not as this error.
	ErrPeerClosed = errors.New("session: peer closed connection")
)
