package secc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
)

// newSessionID is the all-zero session id an EVCC sends to request a
// brand-new session (ISO 15118-2 §8.3.2.1); any other value is a resumption
// attempt.
const newSessionID = "0000000000000000"

// SessionSetupState implements the SessionSetup request (spec §8 scenario
// 1): establishes or resumes the session id, then transitions to the
// ServiceDiscovery state.
type SessionSetupState struct {
	EVSEID     string
	NextState  func() session.State
	TimeoutDur time.Duration
}

// NewSessionSetupState builds the state with the given EVSE identifier and
// the standard 2-second V2G-message-level timeout (ISO 15118-2 Table 109).
func NewSessionSetupState(evseID string, next func() session.State) *SessionSetupState {
	return &SessionSetupState{EVSEID: evseID, NextState: next, TimeoutDur: 2 * time.Second}
}

func (s *SessionSetupState) Name() string            { return "SessionSetup" }
func (s *SessionSetupState) Family() exi.EnergyFamily { return exi.EnergyFamilyNone }
func (s *SessionSetupState) Timeout() time.Duration   { return s.TimeoutDur }

func (s *SessionSetupState) ProcessMessage(sess *session.Session, msg exi.Message) session.Outcome {
	outcome, ok := CheckMessage(sess, msg, VariantISOV2, []string{KindSessionSetupReq}, true)
	if !ok {
		return outcome
	}
	env, _ := asEnvelope(msg)

	if env.SessionID == newSessionID || env.SessionID == "" {
		id, err := generateSessionID()
		if err != nil {
			sess.Logger().Error("generate session id", "error", err.Error())
			return session.Outcome{Terminate: true, StopReason: "failed to generate a new session id"}
		}
		sess.SessionID = id
	} else if env.SessionID != sess.SessionID {
		// Resumption of a session id this SECC never issued: the original
		// falls back to minting a fresh session rather than failing, since
		// SessionSetupReq is exempted from the session-id equality check in
		// check_msg. Mirror that instead of treating it as an error.
		id, err := generateSessionID()
		if err != nil {
			sess.Logger().Error("generate session id", "error", err.Error())
			return session.Outcome{Terminate: true, StopReason: "failed to generate a new session id"}
		}
		sess.SessionID = id
	}
	sess.Started = true

	resp := Envelope{
		Variant:   VariantISOV2,
		Namespace: exi.NamespaceISOV2MsgDef,
		Kind:      KindSessionSetupRes,
		SessionID: sess.SessionID,
		Fields: map[string]any{
			"ResponseCode": string(ResponseCodeOK),
			"EVSEID":       s.EVSEID,
			"DateTimeNow":  int64(0),
		},
	}
	frame, err := encodeEnvelope(sess, resp)
	if err != nil {
		sess.Logger().Error("encode SessionSetupRes", "error", err.Error())
		return session.Outcome{Terminate: true, StopReason: "failed to encode SessionSetupRes"}
	}

	return session.Outcome{
		Frame:       frame,
		NextState:   s.NextState(),
		NextTimeout: 0,
	}
}

// generateSessionID mints a new 8-byte session id, hex-encoded per
// ISO 15118-2's SessionID type (hexBinary, 8 bytes).
func generateSessionID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
