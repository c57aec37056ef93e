//go:build linux || freebsd || openbsd || darwin || netbsd || dragonfly

// Package kernel resolves the running kernel's version, used to decide
// which optional tcp_info fields a diag.Query call can trust (spec.md
// §6's socket-level diagnostics: newer kernels report more tcp_info
// fields, and reading an unsupported one is undefined).
package kernel

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/docker/docker/pkg/parsers/kernel"
)

// Version gets the current kernel version via uname(2).
func Version() (*kernel.VersionInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	release := (*[len(uts.Release)]byte)(unsafe.Pointer(&uts.Release[0]))
	return kernel.ParseRelease(unix.ByteSliceToString(release[:]))
}

// AtLeast reports whether the running kernel is newer than or equal to
// k.Major.Minor.
func AtLeast(k, major, minor int) (bool, error) {
	v, err := Version()
	if err != nil {
		return false, err
	}
	return kernel.CompareKernelVersion(*v, kernel.VersionInfo{Kernel: k, Major: major, Minor: minor}) >= 0, nil
}
