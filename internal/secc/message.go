// Package secc implements Component D of the core: the State base
// contract and the SECC-side "is this the expected message at this
// state" / "synthesize a minimal valid negative response" policy (spec
// §4.4), plus a small reference state catalogue (SAP handshake,
// SessionSetup, ServiceDiscovery) exercising the end-to-end scenarios of
// spec §8.
package secc

import "github.com/dantte-lp/v2gsim/internal/exi"

// Variant discriminates the wire-level message envelope a decoded message
// arrived in (spec §9 Design Note "Dynamic dispatch over wire variants":
// "model the decoded message as a tagged union"). Go has no sum types, so
// this is the discriminator tag on exi.Message.
type Variant int

// Wire variants this core interleaves over one session (spec §1).
const (
	VariantSAP Variant = iota
	VariantISOV2
	VariantISOV20
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case VariantSAP:
		return "SAP"
	case VariantISOV2:
		return "ISO-2"
	case VariantISOV20:
		return "ISO-20"
	default:
		return "unknown variant"
	}
}

// Kinds of the handful of messages this repository's reference state
// catalogue actually exchanges. The full ISO 15118 message catalogue is
// out of scope (spec §1); these are just enough to exercise §8's
// end-to-end scenarios.
const (
	KindSupportedAppProtocolReq = "SupportedAppProtocolReq"
	KindSupportedAppProtocolRes = "SupportedAppProtocolRes"
	KindSessionSetupReq         = "SessionSetupReq"
	KindSessionSetupRes         = "SessionSetupRes"
	KindServiceDiscoveryReq     = "ServiceDiscoveryReq"
	KindServiceDiscoveryRes     = "ServiceDiscoveryRes"
)

// Envelope is the minimal decoded-message shape this reference catalogue
// needs: a tagged union discriminator (Variant, Kind) plus a session id
// and a free-form field bag standing in for the real generated-from-XSD
// struct types (out of scope, spec §1). A real EXI codec would decode
// directly into generated types instead of exi.Message.Body = Envelope;
// the dispatch and check/fail policy below only depend on this shape.
type Envelope struct {
	Variant   Variant
	Namespace exi.Namespace
	Kind      string
	SessionID string
	Fields    map[string]any
}

// asEnvelope extracts the Envelope carried by msg, or ok=false if msg.Body
// is not an Envelope (e.g. the external codec produced something this
// reference catalogue doesn't understand -- treated as a sequence error
// since it is certainly not the expected message type).
func asEnvelope(msg exi.Message) (Envelope, bool) {
	env, ok := msg.Body.(Envelope)
	return env, ok
}
