package netio

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// SetGracefulLinger configures SO_LINGER on conn so that Close blocks for
// up to timeout waiting for queued data to be acknowledged by the peer,
// instead of returning at once and finishing the close in the background
// (the OS default). Spec §4.3 requires the data-link
// layer to hold the connection open for 2s after the last message before
// the 3s TCP teardown begins; without SO_LINGER a Close can return before
// the FIN has even been sent, racing the EVCC's own shutdown timer.
//
// A negative timeout disables linger (OS default: background close).
func SetGracefulLinger(conn *net.TCPConn, timeout time.Duration) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}

	linger := unix.Linger{Onoff: 1, Linger: int32(timeout.Seconds())}
	if timeout < 0 {
		linger = unix.Linger{Onoff: 0}
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		//nolint:gosec // G115: fd uintptr->int is safe; kernel FDs are always small positive integers.
		intFD := int(fd)
		sockErr = unix.SetsockoptLinger(intFD, unix.SOL_SOCKET, unix.SO_LINGER, &linger)
	})
	if err != nil {
		return fmt.Errorf("raw conn control: %w", err)
	}

	return sockErr
}

// SetKeepAlive enables TCP keepalive on conn with the given probe period,
// through net.TCPConn's own SetKeepAlive/SetKeepAlivePeriod (no raw-conn
// Control call). EVCC peers on a vehicle's in-cable PLC modem can sit idle
// for long stretches between SessionSetup and the next request; TCP
// keepalive lets the acceptor notice a vanished EV without waiting on the
// protocol-level timeout.
func SetKeepAlive(conn *net.TCPConn, period time.Duration) error {
	if err := conn.SetKeepAlive(true); err != nil {
		return fmt.Errorf("enable keepalive: %w", err)
	}
	if err := conn.SetKeepAlivePeriod(period); err != nil {
		return fmt.Errorf("set keepalive period: %w", err)
	}
	return nil
}
