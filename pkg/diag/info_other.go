//go:build !linux

package diag

import (
	"fmt"
	"runtime"
)

// Supported reports whether socket diagnostics are available on this
// platform. Only Linux's getsockopt(TCP_INFO) path is implemented; other
// platforms (each with their own tcp_connection_info layout) are left
// unimplemented here (see DESIGN.md).
func Supported() bool { return false }

// Query always fails on unsupported platforms.
func Query(fd uintptr) (*Info, error) {
	return nil, fmt.Errorf("diag: socket diagnostics are unsupported on %s", runtime.GOOS)
}
