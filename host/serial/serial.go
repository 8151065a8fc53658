// Package serial opens the firmware's command port on the host.
package serial

import (
	"io"
	"path/filepath"
	"strings"
)

// Port is an open serial connection to the firmware.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// LockDir holds the per-device lock file ("" = os.TempDir())
	LockDir string
}

// DefaultConfig returns the configuration used by the host tools
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}

// LockName returns the lock file name for a device path, so two tools
// never talk to the same port at once.
func LockName(device string) string {
	base := filepath.Base(device)
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, base)
	return "iohwab-" + base + ".lock"
}
