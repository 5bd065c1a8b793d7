package core

import "tinygo.org/x/drivers"

// SPI device flags
const (
	SF_CS_ACTIVE_HIGH = 0x02 // Chip select active high (default is active low)
	SF_HAVE_PIN       = 0x04 // Has chip select pin
)

// SPIDevice is a peripheral on an SPI bus, selected by an optional chip
// select pin driven through the GPIO HAL
type SPIDevice struct {
	Handle *SPIHandle
	Flags  uint8
	CS     GPIOPin
}

var _ drivers.SPI = (*SPIDevice)(nil)

// NewSPIDevice configures cs as an output and leaves it deasserted
func NewSPIDevice(h *SPIHandle, cs GPIOPin, activeHigh bool) (*SPIDevice, error) {
	dev := &SPIDevice{Handle: h, Flags: SF_HAVE_PIN, CS: cs}
	if activeHigh {
		dev.Flags |= SF_CS_ACTIVE_HIGH
	}
	if err := MustGPIO().ConfigureOutput(cs); err != nil {
		return nil, err
	}
	if err := dev.selectChip(false); err != nil {
		return nil, err
	}
	return dev, nil
}

// NewSPIDeviceWithoutCS wraps a handle for a device that is always selected
func NewSPIDeviceWithoutCS(h *SPIHandle) *SPIDevice {
	return &SPIDevice{Handle: h}
}

func (d *SPIDevice) selectChip(active bool) error {
	if d.Flags&SF_HAVE_PIN == 0 {
		return nil
	}
	level := !active // active low
	if d.Flags&SF_CS_ACTIVE_HIGH != 0 {
		level = active
	}
	return MustGPIO().SetPin(d.CS, level)
}

// Tx asserts chip select, exchanges w and r and deasserts chip select.
// A transfer error takes precedence over a chip select error.
func (d *SPIDevice) Tx(w, r []byte) error {
	if err := d.selectChip(true); err != nil {
		return err
	}
	err := d.Handle.Exchange(w, r)
	if csErr := d.selectChip(false); err == nil {
		err = csErr
	}
	return err
}

// Transfer exchanges one byte with chip select asserted
func (d *SPIDevice) Transfer(b byte) (byte, error) {
	var rx [1]byte
	if err := d.Tx([]byte{b}, rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}
