package secc

import (
	"fmt"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
)

// CheckMessage validates an inbound message against what the current
// state expects (spec §4.4 "Shared helper check_msg"). On success it
// returns ok=true and the caller proceeds with its own handling. On
// failure it returns ok=false and a ready-to-return session.Outcome
// already carrying the synthesized negative response and Terminate=true
// -- the caller should return that Outcome verbatim.
//
// expectFirst mirrors the original's default of true: the first request
// accepted after entering a state is pinned to expectedKinds[0]; only
// states that may receive several different follow-up request types pass
// expectFirst=false, in which case any member of expectedKinds is
// accepted.
func CheckMessage(sess *session.Session, msg exi.Message, variant Variant, expectedKinds []string, expectFirst bool) (session.Outcome, bool) {
	env, ok := asEnvelope(msg)
	if !ok {
		return StopStateMachine(sess, "message body is not a recognized envelope", Envelope{Variant: variant}, ResponseCodeFailedSequenceError), false
	}
	if env.Variant != variant {
		return StopStateMachine(sess, fmt.Sprintf("unexpected wire variant %s, want %s", env.Variant, variant), env, ResponseCodeFailedSequenceError), false
	}

	if len(expectedKinds) == 0 {
		return StopStateMachine(sess, "no expected message kinds configured", env, ResponseCodeFailedSequenceError), false
	}

	kindOK := false
	if expectFirst {
		kindOK = env.Kind == expectedKinds[0]
	} else {
		for _, k := range expectedKinds {
			if env.Kind == k {
				kindOK = true
				break
			}
		}
	}
	if !kindOK {
		return StopStateMachine(sess, fmt.Sprintf("unexpected message %q in this state", env.Kind), env, ResponseCodeFailedSequenceError), false
	}

	if env.Kind != KindSessionSetupReq && env.Kind != KindSupportedAppProtocolReq {
		if env.SessionID != sess.SessionID {
			return StopStateMachine(sess, fmt.Sprintf("session id mismatch: got %q, want %q", env.SessionID, sess.SessionID), env, ResponseCodeFailedUnknownSession), false
		}
	}

	return session.Outcome{}, true
}
