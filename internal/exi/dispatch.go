// Package exi implements the namespace-selection policy that precedes
// every EXI decode (spec §4.2). The EXI codec itself -- the thing that
// actually turns namespace-qualified bytes into a typed message -- is an
// external collaborator; this package only decides *which* namespace
// applies to the next inbound message.
package exi

import "strings"

// Namespace is one of the wire-level EXI schema namespaces a message may be
// encoded under.
type Namespace string

// Namespaces defined by the standards this core interleaves (spec §6).
const (
	NamespaceSAP            Namespace = "urn:iso:15118:2:2010:AppProtocol"
	NamespaceDINMsgBody     Namespace = "urn:din:70121:2012:MsgBody"
	NamespaceISOV2MsgDef    Namespace = "urn:iso:15118:2:2013:MsgDef"
	NamespaceISOV20Common   Namespace = "urn:iso:std:iso:15118:-20:CommonMessages"
	NamespaceISOV20AC       Namespace = "urn:iso:std:iso:15118:-20:AC"
	NamespaceISOV20DC       Namespace = "urn:iso:std:iso:15118:-20:DC"
	NamespaceISOV20WPT      Namespace = "urn:iso:std:iso:15118:-20:WPT"
	NamespaceISOV20ACDP     Namespace = "urn:iso:std:iso:15118:-20:ACDP"
)

// Protocol identifies the negotiated application protocol of a session.
// Mirrors the Session.protocol field in spec §3.
type Protocol int

// Negotiated protocol values. Unknown is the zero value, matching spec
// §3's "Starts UNKNOWN; set exactly once".
const (
	ProtocolUnknown Protocol = iota
	ProtocolDINSPEC70121
	ProtocolISO151182
	ProtocolISO1511820
)

// String implements fmt.Stringer.
func (p Protocol) String() string {
	switch p {
	case ProtocolDINSPEC70121:
		return "DIN_SPEC_70121"
	case ProtocolISO151182:
		return "ISO_15118_2"
	case ProtocolISO1511820:
		return "ISO_15118_20"
	default:
		return "UNKNOWN"
	}
}

// EnergyFamily is the ISO 15118-20 energy-mode namespace family a state
// belongs to. Per the Design Notes (spec §9), this is a static field on
// each ISO-20 state rather than a runtime string-prefix check, but the
// prefix convention below is kept as the source of truth the static field
// is derived from.
type EnergyFamily string

const (
	EnergyFamilyNone EnergyFamily = ""
	EnergyFamilyAC   EnergyFamily = "AC"
	EnergyFamilyDC   EnergyFamily = "DC"
	EnergyFamilyWPT  EnergyFamily = "WPT"
	EnergyFamilyACDP EnergyFamily = "ACDP"
)

// FamilyFromStateName derives an EnergyFamily from a state's name using the
// prefix convention described in spec §4.2. Prefer a state's own static
// EnergyFamily field where one is available; this helper exists for
// collaborators that only have a state name to go on (diagnostics, tests).
func FamilyFromStateName(name string) EnergyFamily {
	switch {
	case strings.HasPrefix(name, string(EnergyFamilyACDP)):
		return EnergyFamilyACDP
	case strings.HasPrefix(name, string(EnergyFamilyAC)):
		return EnergyFamilyAC
	case strings.HasPrefix(name, string(EnergyFamilyDC)):
		return EnergyFamilyDC
	case strings.HasPrefix(name, string(EnergyFamilyWPT)):
		return EnergyFamilyWPT
	default:
		return EnergyFamilyNone
	}
}

// SelectNamespace implements the dispatch policy of spec §4.2: given the
// session's negotiated protocol and (for ISO 15118-20 only) the current
// state's energy family, return the namespace the next inbound payload
// must be decoded under.
func SelectNamespace(protocol Protocol, family EnergyFamily) Namespace {
	switch protocol {
	case ProtocolUnknown:
		return NamespaceSAP
	case ProtocolISO151182:
		return NamespaceISOV2MsgDef
	case ProtocolDINSPEC70121:
		return NamespaceDINMsgBody
	case ProtocolISO1511820:
		switch family {
		case EnergyFamilyAC:
			return NamespaceISOV20AC
		case EnergyFamilyDC:
			return NamespaceISOV20DC
		case EnergyFamilyWPT:
			return NamespaceISOV20WPT
		case EnergyFamilyACDP:
			return NamespaceISOV20ACDP
		default:
			return NamespaceISOV20Common
		}
	default:
		return NamespaceSAP
	}
}

// Message is the external codec's decoded output: a namespace tag plus the
// codec-specific typed value. The core never inspects Body beyond passing
// it to the current state; the concrete type catalogue is out of scope
// (spec §1).
type Message struct {
	Namespace Namespace
	Body      any
}

// Codec is the external collaborator (spec §4.2) this package dispatches
// to. The actual EXI binary encoding is out of scope for this core; a real
// deployment supplies a Codec backed by a generated EXI grammar codec.
type Codec interface {
	Decode(namespace Namespace, data []byte) (Message, error)
	Encode(msg Message) ([]byte, error)
}

// noCodec is the Codec returned by NoCodec: both methods fail with
// errNoCodecConfigured, so a missing codec shows up as an error rather
// than as a zero-value message.
type noCodec struct{}

func (noCodec) Decode(Namespace, []byte) (Message, error) {
	return Message{}, errNoCodecConfigured
}

func (noCodec) Encode(Message) ([]byte, error) {
	return nil, errNoCodecConfigured
}
