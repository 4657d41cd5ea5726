package cli

import (
	"errors"
	"strings"
	"syscall"
)

// isAddrInUseError reports whether err is a bind failure caused by the
// address already being occupied. The string check covers platforms
// where the syscall errno is not preserved through the net package.
func isAddrInUseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}

// isPermissionDeniedError reports whether err is a bind failure caused
// by missing privileges (typically ports below 1024).
func isPermissionDeniedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EACCES) {
		return true
	}
	return strings.Contains(err.Error(), "permission denied")
}
