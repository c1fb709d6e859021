// Package registry implements Component 4.5 of the core: a live-session
// directory and counter set, doubling as the session.Observer that every
// session.Machine is wired to (spec §4.5 "added"). It is the backing store
// for the HTTP introspection surface (internal/introspect); the Prometheus
// collector (internal/metrics) keeps its own metrics and does not read it.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Entry is a read-only snapshot of one live session, returned by Snapshot
// and Get. Copies are returned, never references to mutable state --
// mirrors internal/bfd/manager.go's SessionSnapshot design.
type Entry struct {
	Peer         string
	Protocol     string
	SessionID    string
	State        string
	Started      time.Time
	LastActivity time.Time
}

type entry struct {
	peer         string
	protocol     string
	sessionID    string
	state        string
	started      time.Time
	lastActivity time.Time
}

func (e *entry) snapshot() Entry {
	return Entry{
		Peer:         e.peer,
		Protocol:     e.protocol,
		SessionID:    e.sessionID,
		State:        e.state,
		Started:      e.started,
		LastActivity: e.lastActivity,
	}
}

// Counters holds the process-wide counters a Registry accumulates across
// every session it observes (spec §4.5). All fields are atomic so the
// Prometheus collector can read them from a different goroutine than the
// one mutating the session map.
type Counters struct {
	SessionsStarted    atomic.Uint64
	SessionsStopped    atomic.Uint64
	SessionsSuccessful atomic.Uint64
	FramesSent         atomic.Uint64
	FramesReceived     atomic.Uint64
	FramesDropped      atomic.Uint64
	Timeouts           atomic.Uint64
	StateTransitions   atomic.Uint64
}

// Registry tracks every currently-live session keyed by peer address and
// implements session.Observer so a Machine can report into it directly
// (spec §4.5: "a Registry component ... incrementing/decrementing a
// sessions gauge"). Grounded on internal/bfd/manager.go's Manager: same
// RWMutex-guarded map-of-entries plus atomic counters idiom, narrowed to a
// single lookup key (no secondary peer-key index is needed -- a V2G
// session's peer address is its only identity).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	Counters Counters
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// SessionStarted implements session.Observer.
func (r *Registry) SessionStarted(peer string) {
	now := time.Now()
	r.mu.Lock()
	r.sessions[peer] = &entry{peer: peer, state: "start", started: now, lastActivity: now}
	r.mu.Unlock()
	r.Counters.SessionsStarted.Add(1)
}

// SessionStopped implements session.Observer.
func (r *Registry) SessionStopped(peer string, successful bool) {
	r.mu.Lock()
	delete(r.sessions, peer)
	r.mu.Unlock()
	r.Counters.SessionsStopped.Add(1)
	if successful {
		r.Counters.SessionsSuccessful.Add(1)
	}
}

// FrameSent implements session.Observer.
func (r *Registry) FrameSent(peer string) {
	r.touch(peer)
	r.Counters.FramesSent.Add(1)
}

// FrameReceived implements session.Observer.
func (r *Registry) FrameReceived(peer string) {
	r.touch(peer)
	r.Counters.FramesReceived.Add(1)
}

// FrameDropped implements session.Observer.
func (r *Registry) FrameDropped(string) {
	r.Counters.FramesDropped.Add(1)
}

// StateTransition implements session.Observer.
func (r *Registry) StateTransition(peer, _, to string) {
	r.mu.Lock()
	if e, ok := r.sessions[peer]; ok {
		e.state = to
		e.lastActivity = time.Now()
	}
	r.mu.Unlock()
	r.Counters.StateTransitions.Add(1)
}

// Timeout implements session.Observer.
func (r *Registry) Timeout(string) {
	r.Counters.Timeouts.Add(1)
}

// SetProtocol records the negotiated protocol string for a live peer. Not
// part of session.Observer, since protocol negotiation is not itself a
// Machine lifecycle event. v2gsimd's acceptor does not call SetProtocol or
// SetSessionID, so sessions it serves report an empty protocol and
// session id.
func (r *Registry) SetProtocol(peer, protocol string) {
	r.mu.Lock()
	if e, ok := r.sessions[peer]; ok {
		e.protocol = protocol
	}
	r.mu.Unlock()
}

// SetSessionID records the session id for peer once SessionSetup completes.
func (r *Registry) SetSessionID(peer, sessionID string) {
	r.mu.Lock()
	if e, ok := r.sessions[peer]; ok {
		e.sessionID = sessionID
	}
	r.mu.Unlock()
}

func (r *Registry) touch(peer string) {
	r.mu.Lock()
	if e, ok := r.sessions[peer]; ok {
		e.lastActivity = time.Now()
	}
	r.mu.Unlock()
}

// Snapshot returns every live session sorted by peer address, for use by
// the introspection HTTP surface and tests (spec §4.5 "exposing a
// Snapshot() method").
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

// Get returns the live session for peer, if any.
func (r *Registry) Get(peer string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[peer]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Len returns the number of currently live sessions -- the value the
// Prometheus sessions gauge should report.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
