package ports

import (
	"net"
	"testing"
)

func TestIsAvailable_FreePort(t *testing.T) {
	// Grab an ephemeral port, release it, then check availability.
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if !IsAvailable(port) {
		t.Errorf("expected port %d to be available after release", port)
	}
}

func TestIsAvailable_OccupiedPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if IsAvailable(port) {
		t.Errorf("expected port %d to be reported in use", port)
	}
}

func TestCheck_ReturnsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if err := Check(port); err == nil {
		t.Errorf("expected Check(%d) to fail while port is held", port)
	}
}
