package netio_test

import (
	"net"
	"testing"
	"time"

	"github.com/dantte-lp/v2gsim/internal/netio"
)

func dialLoopback(t *testing.T) (*net.TCPConn, *net.TCPConn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	acceptedCh := make(chan *net.TCPConn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		acceptedCh <- c.(*net.TCPConn)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	server := <-acceptedCh
	t.Cleanup(func() { _ = server.Close() })

	return client.(*net.TCPConn), server
}

func TestSetGracefulLinger(t *testing.T) {
	t.Parallel()

	client, _ := dialLoopback(t)

	if err := netio.SetGracefulLinger(client, 2*time.Second); err != nil {
		t.Fatalf("SetGracefulLinger: %v", err)
	}
}

func TestSetGracefulLingerDisabled(t *testing.T) {
	t.Parallel()

	client, _ := dialLoopback(t)

	if err := netio.SetGracefulLinger(client, -1); err != nil {
		t.Fatalf("SetGracefulLinger(disabled): %v", err)
	}
}

func TestSetKeepAlive(t *testing.T) {
	t.Parallel()

	client, _ := dialLoopback(t)

	if err := netio.SetKeepAlive(client, 30*time.Second); err != nil {
		t.Fatalf("SetKeepAlive: %v", err)
	}
}
