//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/tarm/serial"
)

// ErrPortBusy is returned when another process holds the device lock
var ErrPortBusy = errors.New("serial port is in use by another process")

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	lock *flock.Flock
	cfg  *Config
}

// Open locks and opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	lock, err := acquireLock(cfg)
	if err != nil {
		return nil, err
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		lock: lock,
		cfg:  cfg,
	}, nil
}

// acquireLock takes the per-device lock without waiting
func acquireLock(cfg *Config) (*flock.Flock, error) {
	dir := cfg.LockDir
	if dir == "" {
		dir = os.TempDir()
	}
	lock := flock.New(filepath.Join(dir, LockName(cfg.Device)))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrPortBusy, cfg.Device)
	}
	return lock, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port and releases the device lock
func (p *NativePort) Close() error {
	var err error
	if p.port != nil {
		err = p.port.Close()
	}
	if p.lock != nil {
		if uerr := p.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// Flush flushes the serial port buffers
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
