package session_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
	"github.com/dantte-lp/v2gsim/internal/v2gtp"
)

// echoCodec treats the raw payload bytes as the message body, so tests can
// drive the machine without a real EXI grammar.
type echoCodec struct{}

func (echoCodec) Decode(ns exi.Namespace, data []byte) (exi.Message, error) {
	return exi.Message{Namespace: ns, Body: data}, nil
}

func (echoCodec) Encode(msg exi.Message) ([]byte, error) {
	b, _ := msg.Body.([]byte)
	return b, nil
}

// scriptedState returns a fixed Outcome for every ProcessMessage call,
// regardless of input -- sufficient to exercise the Machine's loop without
// a real state catalogue.
type scriptedState struct {
	name    string
	timeout time.Duration
	outcome session.Outcome
}

func (s scriptedState) Name() string             { return s.name }
func (s scriptedState) Family() exi.EnergyFamily  { return exi.EnergyFamilyNone }
func (s scriptedState) Timeout() time.Duration    { return s.timeout }
func (s scriptedState) ProcessMessage(*session.Session, exi.Message) session.Outcome {
	return s.outcome
}

func testConfig() session.Config {
	return session.Config{
		ReadWindow:     7000,
		DataLinkDelay:  10 * time.Millisecond,
		TransportDelay: 10 * time.Millisecond,
	}
}

func TestMachineHappyPathThenTerminate(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	replyFrame := v2gtp.Encode(v2gtp.PayloadTypeEXI, []byte("reply"))
	start := scriptedState{
		name:    "Start",
		timeout: time.Second,
		outcome: session.Outcome{Frame: replyFrame, Terminate: true, Successful: true, StopReason: "done"},
	}

	notify := make(chan session.StopNotification, 1)
	sess := session.New(server, start, echoCodec{}, testConfig(), discardLogger(), nil)
	m := session.NewMachine(sess, session.WithNotify(notify))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background(), time.Second)
		close(done)
	}()

	req := v2gtp.Encode(v2gtp.PayloadTypeEXI, []byte("req"))
	if _, err := client.Write(req); err != nil {
		t.Fatalf("write request: %v", err)
	}

	buf := make([]byte, len(replyFrame))
	if err := client.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, err := readFull(client, buf); err != nil {
		t.Fatalf("read reply: %v", err)
	}

	select {
	case n := <-notify:
		if !n.Successful {
			t.Errorf("StopNotification.Successful = false, want true")
		}
		if n.Reason != "done" {
			t.Errorf("StopNotification.Reason = %q, want %q", n.Reason, "done")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop notification")
	}

	<-done
}

func TestMachinePeerClosed(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()

	start := scriptedState{name: "Start", timeout: time.Second}
	notify := make(chan session.StopNotification, 1)
	sess := session.New(server, start, echoCodec{}, testConfig(), discardLogger(), nil)
	m := session.NewMachine(sess, session.WithNotify(notify))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background(), time.Second)
		close(done)
	}()

	if err := client.Close(); err != nil {
		t.Fatalf("close client: %v", err)
	}

	select {
	case n := <-notify:
		if n.Reason != "TCP peer closed" {
			t.Errorf("Reason = %q, want %q", n.Reason, "TCP peer closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop notification")
	}
	<-done
}

func TestMachineTimeout(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	start := scriptedState{name: "Start", timeout: 20 * time.Millisecond}
	notify := make(chan session.StopNotification, 1)
	sess := session.New(server, start, echoCodec{}, testConfig(), discardLogger(), nil)
	m := session.NewMachine(sess, session.WithNotify(notify))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background(), 20*time.Millisecond)
		close(done)
	}()

	select {
	case n := <-notify:
		if n.Successful {
			t.Error("timeout notification should not be Successful")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop notification")
	}
	<-done
}

func TestMachineFaultyStateImplementation(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	// An Outcome with neither Terminate nor a Frame violates invariant 1.
	start := scriptedState{name: "Broken", timeout: time.Second, outcome: session.Outcome{}}
	notify := make(chan session.StopNotification, 1)
	sess := session.New(server, start, echoCodec{}, testConfig(), discardLogger(), nil)
	m := session.NewMachine(sess, session.WithNotify(notify))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background(), time.Second)
		close(done)
	}()

	req := v2gtp.Encode(v2gtp.PayloadTypeEXI, []byte("req"))
	if _, err := client.Write(req); err != nil {
		t.Fatalf("write request: %v", err)
	}

	select {
	case n := <-notify:
		if n.Successful {
			t.Error("faulty-state notification should not be Successful")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop notification")
	}
	<-done
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
