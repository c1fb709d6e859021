package session

import (
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
)

// State is the contract every per-protocol-state handler satisfies
// (spec §4.4, Design Note "State polymorphism"). The session machine keeps
// a single boxed State value as Session.CurrentState; transitions replace
// it wholesale rather than mutating it in place, so a State never holds an
// owning back-reference to the Session -- the Session is passed in at
// every call (Design Note "Circular-reference between state and session").
type State interface {
	// Name identifies the state for logging, metrics, and namespace
	// dispatch diagnostics (exi.FamilyFromStateName).
	Name() string

	// Family is the ISO 15118-20 energy-mode namespace family this state
	// belongs to, or exi.EnergyFamilyNone for SAP/ISO-2/DIN/ISO-20-common
	// states. A static field per spec §9's "Precomputed namespace table"
	// design note, rather than a runtime name-prefix check.
	Family() exi.EnergyFamily

	// Timeout is this state's inbound-wait budget: how long the receive
	// loop will wait for the next message while this state is current.
	Timeout() time.Duration

	// ProcessMessage consumes a decoded message and produces an Outcome.
	// Per invariant 1 (spec §3), a well-behaved implementation always
	// returns an Outcome with either Terminate set or Frame non-nil; the
	// machine enforces this as a postcondition and treats any other
	// result as ErrFaultyStateImplementation.
	ProcessMessage(sess *Session, msg exi.Message) Outcome
}

// Outcome is the result of State.ProcessMessage: the scratch fields
// {next_state, next_msg, next_v2gtp_msg, next_msg_timeout} of spec §3,
// modeled as a single value rather than mutated session-scoped fields so
// that states cannot accidentally leave the machine in a half-updated
// state.
type Outcome struct {
	// NextState is the state to transition to. nil means "stay in the
	// current state" (spec §4.3 go_to_next_state: "If null, leave
	// current_state unchanged").
	NextState State

	// Frame is the complete wire bytes (V2GTP header + EXI payload) to
	// send before advancing, or nil if nothing is sent this round.
	Frame []byte

	// NextTimeout is the inbound-wait budget for the read that follows
	// sending Frame. Zero means the machine uses the Timeout() of the
	// state that is current after the transition. Ignored when Terminate
	// or Pause is set.
	NextTimeout time.Duration

	// Terminate ends the session after Frame (if any) is sent. Maps to
	// the sentinel next_state = Terminate of the original design.
	Terminate bool

	// Pause suspends the session (ISO 15118-20 Pause/Resume) after Frame
	// is sent. Maps to the sentinel next_state = Pause.
	Pause bool

	// StopReason, when Terminate or Pause is set, becomes the diagnostic
	// text of the StopNotification the machine enqueues. Left empty to
	// let the machine supply a generic reason.
	StopReason string

	// Successful marks a Terminate/Pause outcome as expected (e.g. a
	// clean SessionStopRes) rather than a failure response. Negative
	// responses (internal/secc) leave this false.
	Successful bool
}

// valid reports whether Outcome satisfies invariant 1 (spec §3): either
// Terminate/Pause is set, or a frame was produced to send.
func (o Outcome) valid() bool {
	return o.Terminate || o.Pause || o.Frame != nil
}
