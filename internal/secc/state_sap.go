package secc

import (
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
)

// offeredProtocol is one entry of the SAP handshake's offered-protocol
// list (ISO 15118-2 §8.2): a URN this SECC understands, the concrete
// Protocol it selects, and the EXI schema id the EVCC must echo in every
// subsequent SAP-namespace message.
type offeredProtocol struct {
	urn      string
	protocol exi.Protocol
	schemaID uint8
}

// defaultOfferedProtocols is the fixed SchemaID table every
// NewSupportedAppProtocolState starts from. It is not derived from
// internal/config.Config.SupportedProtocols; a narrower list can be set
// through the exported Offered field.
func defaultOfferedProtocols() []offeredProtocol {
	return []offeredProtocol{
		{urn: "urn:iso:15118:2:2013:MsgDef", protocol: exi.ProtocolISO151182, schemaID: 1},
		{urn: "urn:din:70121:2012:MsgDef", protocol: exi.ProtocolDINSPEC70121, schemaID: 2},
	}
}

// SupportedAppProtocolState implements the SAP handshake (spec §8
// scenario 1/2): the session's sole entry point. It is supplied a
// sessionSetup constructor rather than importing the SessionSetup state
// directly, avoiding an import cycle if the state catalogue later grows
// package boundaries.
type SupportedAppProtocolState struct {
	Offered    []offeredProtocol
	NextState  func() session.State
	TimeoutDur time.Duration
}

// NewSupportedAppProtocolState builds the handshake state with the
// standard offered-protocol table and a 2-second timeout
// (ISO 15118-2 Table 109's SupportedAppProtocol entry).
func NewSupportedAppProtocolState(next func() session.State) *SupportedAppProtocolState {
	return &SupportedAppProtocolState{
		Offered:    defaultOfferedProtocols(),
		NextState:  next,
		TimeoutDur: 2 * time.Second,
	}
}

func (s *SupportedAppProtocolState) Name() string            { return "SupportedAppProtocol" }
func (s *SupportedAppProtocolState) Family() exi.EnergyFamily { return exi.EnergyFamilyNone }
func (s *SupportedAppProtocolState) Timeout() time.Duration   { return s.TimeoutDur }

// ProcessMessage implements spec §8 scenarios 1 and 2: negotiate the
// application protocol, or fail with Failed_NoNegotiation if none of the
// EVCC's offered URNs is supported.
func (s *SupportedAppProtocolState) ProcessMessage(sess *session.Session, msg exi.Message) session.Outcome {
	outcome, ok := CheckMessage(sess, msg, VariantSAP, []string{KindSupportedAppProtocolReq}, true)
	if !ok {
		return outcome
	}
	env, _ := asEnvelope(msg)

	urns, _ := env.Fields["SupportedApps"].([]string)
	chosen, found := s.selectProtocol(urns)
	if !found {
		return StopStateMachine(sess, "no mutually supported application protocol", env, ResponseCodeFailedNoNegotiation)
	}

	sess.SetProtocol(chosen.protocol)
	sess.ChosenProtocol = chosen.urn

	resp := Envelope{
		Variant:   VariantSAP,
		Namespace: exi.NamespaceSAP,
		Kind:      KindSupportedAppProtocolRes,
		Fields: map[string]any{
			"ResponseCode": string(ResponseCodeOKSuccessfulNegotiation),
			"SchemaID":     chosen.schemaID,
		},
	}
	frame, err := encodeEnvelope(sess, resp)
	if err != nil {
		sess.Logger().Error("encode SupportedAppProtocolRes", "error", err.Error())
		return session.Outcome{Terminate: true, StopReason: "failed to encode SupportedAppProtocolRes"}
	}

	return session.Outcome{
		Frame:       frame,
		NextState:   s.NextState(),
		NextTimeout: 0,
	}
}

// selectProtocol walks s.Offered in priority order and returns the first
// entry whose URN the EVCC also listed, matching ISO 15118-2 §8.2's
// "highest-priority mutually supported protocol" rule.
func (s *SupportedAppProtocolState) selectProtocol(requested []string) (offeredProtocol, bool) {
	requestedSet := make(map[string]struct{}, len(requested))
	for _, u := range requested {
		requestedSet[u] = struct{}{}
	}
	for _, o := range s.Offered {
		if _, ok := requestedSet[o.urn]; ok {
			return o, true
		}
	}
	return offeredProtocol{}, false
}
