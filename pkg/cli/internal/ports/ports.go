// Package ports provides port availability checking.
package ports

import (
	"fmt"
	"net"
)

// IsAvailable checks if a port is available for binding.
// Returns true if the port is available, false otherwise.
func IsAvailable(port int) bool {
	return Check(port) == nil
}

// Check probes a port by binding to it and returns the bind error if
// the port cannot be used. The probe listener is closed immediately, so
// a nil result is a best-effort answer, not a reservation.
func Check(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}
