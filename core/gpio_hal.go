package core

import "periph.io/x/conn/v3/gpio"

// GPIOPin identifies a hardware GPIO pin number. Pins are numbered
// port*16 + pin, so PA0 is 0, PB5 is 21 and PC13 is 45.
type GPIOPin uint32

// MakeGPIOPin returns the global number of a pin.
func MakeGPIOPin(port Port, pin uint8) GPIOPin {
	return GPIOPin(port)*PinsPerPort + GPIOPin(pin)
}

// Split returns the port and pin within the port.
func (p GPIOPin) Split() (Port, uint8) {
	return Port(p / PinsPerPort), uint8(p % PinsPerPort)
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin reads the current pin state (alias for GetPin for convenience)
	ReadPin(pin GPIOPin) bool
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

// PortDriver implements GPIODriver on the port registers.
type PortDriver struct {
	// OutputMode is the speed used by ConfigureOutput. Zero means 2 MHz.
	OutputMode PinMode
}

var _ GPIODriver = PortDriver{}

func (d PortDriver) split(pin GPIOPin) (Port, uint8, error) {
	port, n := pin.Split()
	if !port.Valid() {
		return 0, 0, ErrInvalidPin
	}
	return port, n, nil
}

func (d PortDriver) ConfigureOutput(pin GPIOPin) error {
	port, n, err := d.split(pin)
	if err != nil {
		return err
	}
	mode := d.OutputMode
	if mode == ModeInput {
		mode = ModeOutput2MHz
	}
	return port.Configure(PinConfig{Pin: n, Mode: mode, Config: OutputPushPull})
}

func (d PortDriver) ConfigureInputPullUp(pin GPIOPin) error {
	port, n, err := d.split(pin)
	if err != nil {
		return err
	}
	return port.Configure(PinConfig{Pin: n, Mode: ModeInput, Config: InputPull, Pull: gpio.PullUp})
}

func (d PortDriver) ConfigureInputPullDown(pin GPIOPin) error {
	port, n, err := d.split(pin)
	if err != nil {
		return err
	}
	return port.Configure(PinConfig{Pin: n, Mode: ModeInput, Config: InputPull, Pull: gpio.PullDown})
}

func (d PortDriver) SetPin(pin GPIOPin, value bool) error {
	port, n, err := d.split(pin)
	if err != nil {
		return err
	}
	port.Set(n, value)
	return nil
}

func (d PortDriver) GetPin(pin GPIOPin) (bool, error) {
	port, n, err := d.split(pin)
	if err != nil {
		return false, err
	}
	return port.Get(n), nil
}

func (d PortDriver) ReadPin(pin GPIOPin) bool {
	v, _ := d.GetPin(pin)
	return v
}
