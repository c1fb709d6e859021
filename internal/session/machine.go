package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/v2gtp"
)

// Observer receives lifecycle events from a Machine. Implementations are
// expected to be cheap and non-blocking (typically Prometheus counter
// increments); Machine calls these synchronously from the single session
// goroutine. A nil Observer is a valid no-op.
type Observer interface {
	SessionStarted(peer string)
	SessionStopped(peer string, successful bool)
	FrameSent(peer string)
	FrameReceived(peer string)
	FrameDropped(peer string)
	StateTransition(peer, from, to string)
	Timeout(peer string)
}

type noopObserver struct{}

func (noopObserver) SessionStarted(string)                  {}
func (noopObserver) SessionStopped(string, bool)            {}
func (noopObserver) FrameSent(string)                       {}
func (noopObserver) FrameReceived(string)                   {}
func (noopObserver) FrameDropped(string)                    {}
func (noopObserver) StateTransition(string, string, string) {}
func (noopObserver) Timeout(string)                         {}

// Option configures a Machine at construction time, mirroring the
// functional-options idiom used throughout the teacher codebase
// (bfd.SessionOption).
type Option func(*Machine)

// WithObserver wires a metrics/logging observer into the Machine.
func WithObserver(obs Observer) Option {
	return func(m *Machine) { m.obs = obs }
}

// WithNotify sets the channel the Machine enqueues exactly one
// StopNotification to before Start returns (spec §6 "Notification queue").
func WithNotify(ch chan<- StopNotification) Option {
	return func(m *Machine) { m.notify = ch }
}

// Machine is the generic session state machine of spec component C: it
// owns the single-goroutine receive loop for one Session, routes decoded
// messages into the current State, and manages timeouts, transitions, and
// graceful termination.
type Machine struct {
	sess   *Session
	obs    Observer
	notify chan<- StopNotification
	logger *slog.Logger
}

// NewMachine constructs a Machine for sess. The Session must already carry
// its initial CurrentState (spec §4.3 constructor parameter "a start_state
// constructor").
func NewMachine(sess *Session, opts ...Option) *Machine {
	m := &Machine{
		sess:   sess,
		obs:    noopObserver{},
		logger: sess.logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs the receive loop (spec §4.3 "Operation start(timeout)")
// cooperatively until the session terminates, then enqueues exactly one
// StopNotification and returns. ctx cancellation is an addition over the
// distilled spec (§5 Cancellation): it closes the transport, which
// surfaces identically to a peer close.
func (m *Machine) Start(ctx context.Context, initialTimeout time.Duration) {
	s := m.sess
	s.Started = true
	defer func() { s.Started = false }()
	m.obs.SessionStarted(s.Peer)

	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.closeTransport()
			case <-done:
			}
		}()
	}
	defer close(done)

	timeout := initialTimeout
	for {
		outcome, err := m.step(timeout)
		if err != nil {
			m.abort(err)
			return
		}
		if outcome.stop {
			m.stop(ctx, outcome.stopNotification)
			return
		}
		timeout = outcome.nextTimeout
	}
}

// loopResult is the internal per-iteration result of step(), distinct from
// the public Outcome returned by States: it additionally carries the
// loop's own exit decision.
type loopResult struct {
	stop             bool
	stopNotification StopNotification
	nextTimeout      time.Duration
}

// step executes one iteration of the receive loop (spec §4.3 steps 1-4).
func (m *Machine) step(timeout time.Duration) (loopResult, error) {
	s := m.sess

	if err := s.setReadDeadline(timeout); err != nil {
		return loopResult{}, fmt.Errorf("session: set read deadline: %w", err)
	}

	raw, err := s.read()
	if err != nil {
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			return loopResult{stop: true, stopNotification: StopNotification{
				Successful: true, Reason: "TCP peer closed", Peer: s.Peer,
			}}, nil
		default:
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return loopResult{stop: true, stopNotification: m.timeoutNotification()}, nil
			}
			return loopResult{}, fmt.Errorf("%w: %w", ErrMessageProcessing, err)
		}
	}
	if len(raw) == 0 {
		return loopResult{stop: true, stopNotification: StopNotification{
			Successful: true, Reason: "TCP peer closed", Peer: s.Peer,
		}}, nil
	}

	m.obs.FrameReceived(s.Peer)

	outcome, err := m.processMessage(raw)
	if err != nil {
		return loopResult{}, err
	}

	if outcome.Frame != nil {
		if err := s.send(outcome.Frame); err != nil {
			return loopResult{}, err
		}
		m.obs.FrameSent(s.Peer)
	}

	if outcome.Terminate || outcome.Pause {
		reason := outcome.StopReason
		if reason == "" {
			reason = "state reached terminate"
		}
		if outcome.Pause {
			if err := s.save(s); err != nil {
				s.logger.Error("save session info before pause failed", slog.String("error", err.Error()))
			}
		}
		return loopResult{stop: true, stopNotification: StopNotification{
			Successful: outcome.Successful,
			Reason:     reason,
			Peer:       s.Peer,
		}}, nil
	}

	m.goToNextState(outcome)
	next := outcome.NextTimeout
	if next <= 0 {
		next = s.CurrentState.Timeout()
	}
	return loopResult{nextTimeout: next}, nil
}

// timeoutNotification builds the diagnostic StopNotification for a read
// timeout (spec §4.3 step 3: "cites the last message sent, or 'no message
// was previously sent' if none").
func (m *Machine) timeoutNotification() StopNotification {
	s := m.sess
	m.obs.Timeout(s.Peer)
	reason := "timeout: no V2GTP message was previously sent"
	if s.LastMessageSent != nil {
		reason = fmt.Sprintf("timeout waiting for a reply to the last message sent (%d bytes)", len(s.LastMessageSent))
	}
	return StopNotification{Successful: false, Reason: reason, Peer: s.Peer}
}

// processMessage implements spec §4.3 "Operation process_message(bytes)".
func (m *Machine) processMessage(raw []byte) (Outcome, error) {
	s := m.sess

	frame, err := v2gtp.Decode(raw)
	if err != nil {
		m.obs.FrameDropped(s.Peer)
		return Outcome{}, fmt.Errorf("%w: %w", ErrMessageProcessing, err)
	}
	if !v2gtp.LegalUnderProtocol(frame.PayloadType, s.Protocol != exi.ProtocolUnknown) {
		m.obs.FrameDropped(s.Peer)
		return Outcome{}, fmt.Errorf("%w: payload type %v illegal before negotiation", ErrMessageProcessing, frame.PayloadType)
	}

	namespace := exi.SelectNamespace(s.Protocol, s.CurrentState.Family())
	msg, err := s.Codec.Decode(namespace, frame.Payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	outcome := s.CurrentState.ProcessMessage(s, msg)
	if !outcome.valid() {
		return Outcome{}, fmt.Errorf("%w: state %q returned neither Terminate nor a frame", ErrFaultyStateImplementation, s.CurrentState.Name())
	}
	return outcome, nil
}

// goToNextState implements spec §4.3 "Operation go_to_next_state()".
func (m *Machine) goToNextState(outcome Outcome) {
	if outcome.NextState == nil {
		return
	}
	s := m.sess
	from := s.CurrentState.Name()
	s.CurrentState = outcome.NextState
	m.obs.StateTransition(s.Peer, from, outcome.NextState.Name())
}

// Resume implements spec §4.3 "Operation resume()": re-instantiates the
// start state while preserving session-scoped data already stored on
// Session (session_id, selected services, ...).
func (m *Machine) Resume(start State) {
	m.sess.CurrentState = start
}

// stop implements spec §4.3 "Graceful stop": data-link delay, then
// transport delay, then close, enqueueing exactly one StopNotification.
func (m *Machine) stop(ctx context.Context, n StopNotification) {
	s := m.sess
	s.StopReason = &n

	sleep(ctx, s.cfg.DataLinkDelay)
	s.closeDataLink(ctx)
	sleep(ctx, s.cfg.TransportDelay)

	if err := s.closeTransport(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("close transport", slog.String("error", err.Error()))
	}

	m.obs.SessionStopped(s.Peer, n.Successful)
	m.enqueue(n)
}

// abort handles the error exit paths of spec §7: log at error severity and
// enqueue a populated StopNotification, without the graceful-stop delays
// (these are fatal/protocol errors, not an orderly Terminate).
func (m *Machine) abort(err error) {
	s := m.sess
	n := StopNotification{Successful: false, Reason: err.Error(), Peer: s.Peer}
	s.StopReason = &n

	level := slog.LevelError
	if errors.Is(err, ErrFaultyStateImplementation) {
		s.logger.Log(context.Background(), level, "faulty state implementation", slog.String("error", err.Error()))
	} else {
		s.logger.Error("session aborted", slog.String("error", err.Error()))
	}

	if closeErr := s.closeTransport(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		s.logger.Warn("close transport after abort", slog.String("error", closeErr.Error()))
	}

	m.obs.SessionStopped(s.Peer, false)
	m.enqueue(n)
}

func (m *Machine) enqueue(n StopNotification) {
	if m.notify == nil {
		return
	}
	select {
	case m.notify <- n:
	default:
		m.logger.Warn("stop notification dropped: handler queue full")
	}
}

// sleep is context-aware time.Sleep: it returns early if ctx is cancelled,
// so daemon shutdown does not have to wait out the full graceful-stop
// delay budget.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if ctx == nil {
		time.Sleep(d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
