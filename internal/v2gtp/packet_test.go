package v2gtp_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dantte-lp/v2gsim/internal/v2gtp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payloadType v2gtp.PayloadType
		payload     []byte
	}{
		{"empty payload", v2gtp.PayloadTypeEXI, nil},
		{"SAP payload", v2gtp.PayloadTypeEXI, []byte{0x01, 0x02, 0x03}},
		{"SDP request", v2gtp.PayloadTypeSDPRequest, []byte{0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wire := v2gtp.Encode(tt.payloadType, tt.payload)
			frame, err := v2gtp.Decode(wire)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if frame.PayloadType != tt.payloadType {
				t.Errorf("PayloadType = %v, want %v", frame.PayloadType, tt.payloadType)
			}
			if !bytes.Equal(frame.Payload, tt.payload) && !(len(frame.Payload) == 0 && len(tt.payload) == 0) {
				t.Errorf("Payload = %v, want %v", frame.Payload, tt.payload)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{
			name:    "short header",
			buf:     []byte{0x01, 0xFE, 0x80},
			wantErr: v2gtp.ErrShortHeader,
		},
		{
			name:    "bad version",
			buf:     []byte{0x02, 0xFE, 0x80, 0x01, 0x00, 0x00, 0x00, 0x00},
			wantErr: v2gtp.ErrBadVersion,
		},
		{
			name:    "bad inverse version",
			buf:     []byte{0x01, 0x00, 0x80, 0x01, 0x00, 0x00, 0x00, 0x00},
			wantErr: v2gtp.ErrBadVersion,
		},
		{
			name:    "length mismatch, too short",
			buf:     append([]byte{0x01, 0xFE, 0x80, 0x01, 0x00, 0x00, 0x00, 0x05}, []byte{0x01, 0x02}...),
			wantErr: v2gtp.ErrLengthMismatch,
		},
		{
			name:    "length mismatch, too long",
			buf:     append([]byte{0x01, 0xFE, 0x80, 0x01, 0x00, 0x00, 0x00, 0x01}, []byte{0x01, 0x02, 0x03}...),
			wantErr: v2gtp.ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := v2gtp.Decode(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLegalUnderProtocol(t *testing.T) {
	t.Parallel()

	if !v2gtp.LegalUnderProtocol(v2gtp.PayloadTypeEXI, false) {
		t.Error("PayloadTypeEXI should be legal pre-negotiation (carries the SAP handshake)")
	}
	if v2gtp.LegalUnderProtocol(v2gtp.PayloadTypeScheduleNego, false) {
		t.Error("PayloadTypeScheduleNego should not be legal before protocol negotiation completes")
	}
	if !v2gtp.LegalUnderProtocol(v2gtp.PayloadTypeScheduleNego, true) {
		t.Error("any payload type should be legal once a protocol is negotiated")
	}
}

func TestPayloadTypeString(t *testing.T) {
	t.Parallel()

	if got := v2gtp.PayloadTypeEXI.String(); got == "" {
		t.Error("String() should not be empty for a known payload type")
	}
	if got := v2gtp.PayloadType(0xBEEF).String(); got == "" {
		t.Error("String() should produce a fallback for unknown payload types")
	}
}
