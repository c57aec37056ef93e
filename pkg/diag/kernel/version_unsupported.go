//go:build !(linux || freebsd || openbsd || darwin || netbsd || dragonfly)

package kernel

import (
	"errors"

	"github.com/docker/docker/pkg/parsers/kernel"
)

var errUnsupported = errors.New("kernel: version detection is not available on this platform")

func Version() (*kernel.VersionInfo, error) {
	return nil, errUnsupported
}

func AtLeast(int, int, int) (bool, error) {
	return false, errUnsupported
}
