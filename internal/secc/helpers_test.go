package secc_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/secc"
	"github.com/dantte-lp/v2gsim/internal/session"
)

// envelopeCodec encodes an Envelope as a deterministic marker string so
// tests can assert on what would have been sent without a real EXI
// grammar codec.
type envelopeCodec struct{}

func (envelopeCodec) Decode(ns exi.Namespace, data []byte) (exi.Message, error) {
	return exi.Message{Namespace: ns, Body: string(data)}, nil
}

func (envelopeCodec) Encode(msg exi.Message) ([]byte, error) {
	env, ok := msg.Body.(secc.Envelope)
	if !ok {
		return nil, fmt.Errorf("envelopeCodec: not an Envelope: %T", msg.Body)
	}
	return fmt.Appendf(nil, "%s|%s|%v", env.Kind, env.SessionID, env.Fields["ResponseCode"]), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(start session.State) *session.Session {
	return session.New(nil, start, envelopeCodec{}, session.DefaultConfig(), discardLogger(), nil)
}
