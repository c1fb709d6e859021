package secc

import (
	"fmt"
	"log/slog"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
	"github.com/dantte-lp/v2gsim/internal/v2gtp"
)

// StopStateMachine produces a minimal, schema-valid negative response for
// the specific request that failed (spec §4.4 "Shared helper
// stop_state_machine"). faulty carries the Variant/Kind of the request
// that triggered the failure; reason becomes the StopNotification
// diagnostic.
//
// For SupportedAppProtocolReq failures, no skeleton table is consulted --
// a fresh SupportedAppProtocolRes carrying only the response code is
// synthesized directly, matching the original (it has a single
// meaningful field).
func StopStateMachine(sess *session.Session, reason string, faulty Envelope, code ResponseCode) session.Outcome {
	logger := sess.Logger()

	var resp Envelope
	switch faulty.Variant {
	case VariantSAP:
		resp = Envelope{Variant: VariantSAP, Namespace: exi.NamespaceSAP, Kind: KindSupportedAppProtocolRes, Fields: map[string]any{
			"ResponseCode": string(code),
		}}
	case VariantISOV2:
		sk, ok := failedResponsesISOV2[faulty.Kind]
		if !ok {
			return unreachableFault(sess, reason, faulty)
		}
		resp = sk.synthesize(VariantISOV2, code)
	case VariantISOV20:
		sk, ok := failedResponsesISOV20[faulty.Kind]
		if !ok {
			return unreachableFault(sess, reason, faulty)
		}
		resp = sk.synthesize(VariantISOV20, code)
	default:
		return unreachableFault(sess, reason, faulty)
	}

	frame, err := encodeEnvelope(sess, resp)
	if err != nil {
		logger.Error("failed to encode negative response, terminating without a response",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return session.Outcome{Terminate: true, StopReason: reason}
	}

	logger.Warn("emitting negative response",
		slog.String("reason", reason),
		slog.String("response_code", string(code)),
		slog.String("faulty_kind", faulty.Kind),
	)

	return session.Outcome{
		Frame:      frame,
		Terminate:  true,
		StopReason: reason,
		Successful: false,
	}
}

// unreachableFault handles "the faulty request is none of the known
// kinds" (spec §4.4): logged as an implementation bug, no response is
// emitted. This arm must be unreachable for any request this repository's
// check/fail policy itself produced; it exists to catch a state-catalogue
// bug, not a protocol violation by the peer.
func unreachableFault(sess *session.Session, reason string, faulty Envelope) session.Outcome {
	sess.Logger().Error("stop_state_machine: no negative-response skeleton for faulty request kind (unreachable arm hit -- state-catalogue bug)",
		slog.String("variant", faulty.Variant.String()),
		slog.String("kind", faulty.Kind),
		slog.String("reason", reason),
	)
	return session.Outcome{Terminate: true, StopReason: reason}
}

// encodeEnvelope runs the reply Envelope through the session's EXI codec
// and frames it as a complete V2GTP wire message.
func encodeEnvelope(sess *session.Session, env Envelope) ([]byte, error) {
	payload, err := sess.Codec.Encode(exi.Message{Namespace: env.Namespace, Body: env})
	if err != nil {
		return nil, fmt.Errorf("secc: encode %s: %w", env.Kind, err)
	}
	return v2gtp.Encode(v2gtp.PayloadTypeEXI, payload), nil
}
