// Package netio provides TCP socket-option helpers for the V2G control
// channel, in place of the teacher's raw-socket/UDP/overlay abstractions
// for BFD packet I/O (spec §4.3's graceful-stop sequence needs a real
// TCP connection tuned for it, not a raw socket).
//
// Linux-specific implementation uses golang.org/x/sys/unix, the same
// library the teacher used for its socket options.
package netio
