// Package serial opens the UART link to the board for the trace monitor.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is the byte stream the monitor reads trace frames from. Besides the
// native implementation, tests use in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// DefaultBaud is the rate the firmware configures its UART for
const DefaultBaud = 115200

// Config describes the serial link. It is usually loaded from the monitor
// configuration file.
type Config struct {
	// Device path (e.g. "/dev/ttyUSB0", "COM3")
	Device string `yaml:"device"`

	Baud int `yaml:"baud"`

	// ReadTimeout bounds a single Read; 0 blocks until data arrives
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

var (
	errNoDevice = errors.New("serial: no device configured")
	errBaud     = errors.New("serial: baud rate must be positive")
)

// DefaultConfig returns the settings matching the firmware UART
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Validate checks the configuration before a port is opened
func (c *Config) Validate() error {
	if c.Device == "" {
		return errNoDevice
	}
	if c.Baud <= 0 {
		return errBaud
	}
	return nil
}
