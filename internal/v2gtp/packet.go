// Package v2gtp implements the V2G Transfer Protocol framing defined by
// ISO 15118-2 Annex B / DIN SPEC 70121: an 8-byte header carrying a payload
// type and length, prepended to every EXI-encoded message exchanged between
// EVCC and SECC over the byte-stream transport.
package v2gtp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire-level header constants (ISO 15118-2 Table 8).
const (
	ProtocolVersion        byte = 0x01
	InverseProtocolVersion byte = 0xFE

	// HeaderSize is the fixed size of the V2GTP header in bytes.
	HeaderSize = 8

	// MaxPayloadSize bounds the payload length accepted by Decode: a 1 MiB
	// hard protocol-level ceiling, independent of (and larger than) the
	// 7000-byte default receive window the session loop allocates per read
	// (spec Open Question ii: that window is configurable at the session
	// layer).
	MaxPayloadSize = 1 << 20
)

// PayloadType identifies the payload family carried by a V2GTP frame.
type PayloadType uint16

// Known payload types (ISO 15118-2 Table 9, DIN SPEC 70121 Annex B).
const (
	// PayloadTypeEXI covers both the SAP handshake and every subsequent
	// EXI-encoded V2G message; the two are distinguished by session state,
	// not by payload type.
	PayloadTypeEXI          PayloadType = 0x8001
	PayloadTypeSDPRequest   PayloadType = 0x9000
	PayloadTypeSDPResponse  PayloadType = 0x9001
	PayloadTypeSDPPeerReq   PayloadType = 0x9002
	PayloadTypeSDPPeerRes   PayloadType = 0x9003
	PayloadTypeScheduleNego PayloadType = 0x8002 // ISO 15118-20 schedule renegotiation
)

var payloadTypeNames = map[PayloadType]string{
	PayloadTypeEXI:          "SAP/EXI",
	PayloadTypeSDPRequest:   "SDP request",
	PayloadTypeSDPResponse:  "SDP response",
	PayloadTypeSDPPeerReq:   "SDP peer request",
	PayloadTypeSDPPeerRes:   "SDP peer response",
	PayloadTypeScheduleNego: "schedule renegotiation",
}

// String implements fmt.Stringer.
func (t PayloadType) String() string {
	if name, ok := payloadTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PayloadType(0x%04x)", uint16(t))
}

// Sentinel errors for frame decode failures. All are fatal at the framer
// boundary (spec §4.1): the caller must tear down the session, never retry.
var (
	ErrShortHeader    = errors.New("v2gtp: buffer shorter than header size")
	ErrBadVersion     = errors.New("v2gtp: protocol version / inverse version mismatch")
	ErrLengthMismatch = errors.New("v2gtp: payload length does not match remaining buffer")
	ErrPayloadTooBig  = errors.New("v2gtp: payload length exceeds maximum")
)

// Frame is a decoded V2GTP message: a payload type and its raw payload
// bytes, still EXI-encoded (EXI decode is Component B's job).
type Frame struct {
	PayloadType PayloadType
	Payload     []byte
}

// Decode parses a complete V2GTP frame from buf. buf must contain exactly
// one frame (header + payload); Decode does not support partial frames or
// multiple frames concatenated in one buffer. The session read loop passes
// the bytes of each single read to Decode as they are, so a frame split
// across reads, or two frames arriving in one read, fails with
// ErrLengthMismatch.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, ErrShortHeader
	}
	if buf[0] != ProtocolVersion || buf[1] != InverseProtocolVersion {
		return Frame{}, fmt.Errorf("%w: got %02x %02x", ErrBadVersion, buf[0], buf[1])
	}

	payloadType := PayloadType(binary.BigEndian.Uint16(buf[2:4]))
	payloadLen := binary.BigEndian.Uint32(buf[4:8])

	if payloadLen > MaxPayloadSize {
		return Frame{}, fmt.Errorf("%w: %d > %d", ErrPayloadTooBig, payloadLen, MaxPayloadSize)
	}

	remaining := buf[HeaderSize:]
	if uint32(len(remaining)) != payloadLen {
		return Frame{}, fmt.Errorf("%w: header says %d, buffer has %d", ErrLengthMismatch, payloadLen, len(remaining))
	}

	payload := make([]byte, len(remaining))
	copy(payload, remaining)

	return Frame{PayloadType: payloadType, Payload: payload}, nil
}

// Encode prepends the fixed V2GTP header to payload, producing a complete
// wire frame ready to write to the transport.
func Encode(payloadType PayloadType, payload []byte) []byte {
	out := make([]byte, HeaderSize+len(payload))
	out[0] = ProtocolVersion
	out[1] = InverseProtocolVersion
	binary.BigEndian.PutUint16(out[2:4], uint16(payloadType))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[HeaderSize:], payload)
	return out
}

// LegalUnderProtocol reports whether payloadType may legally appear while
// the session's negotiated protocol is in the given state. Before
// negotiation completes (protocol == UNKNOWN) only SAP/SDP payload types
// are legal (spec §4.1).
func LegalUnderProtocol(payloadType PayloadType, negotiated bool) bool {
	if negotiated {
		return true
	}
	switch payloadType {
	case PayloadTypeEXI, PayloadTypeSDPRequest, PayloadTypeSDPResponse, PayloadTypeSDPPeerReq, PayloadTypeSDPPeerRes:
		return true
	default:
		return false
	}
}
