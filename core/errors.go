package core

import "errors"

var (
	ErrTimeout         = errors.New("timeout waiting for peripheral")
	ErrInvalidPin      = errors.New("invalid pin number")
	ErrInvalidPort     = errors.New("invalid GPIO port")
	ErrInvalidConfig   = errors.New("invalid peripheral configuration")
	ErrInvalidLength   = errors.New("invalid transfer length")
	ErrFrameAlignment  = errors.New("buffer length is not a multiple of the frame width")
	ErrNACK            = errors.New("address not acknowledged")
	ErrArbitrationLost = errors.New("arbitration lost")
	ErrBusError        = errors.New("bus error")
	ErrBufferFull      = errors.New("message buffer full")
	ErrLineInUse       = errors.New("interrupt line already bound to another port")
)

// FlagTimeoutError is returned when a blocking wait gives up on a status
// flag. It matches ErrTimeout with errors.Is.
type FlagTimeoutError struct {
	Flag string
}

func (e *FlagTimeoutError) Error() string {
	return "timeout waiting for " + e.Flag
}

func (e *FlagTimeoutError) Unwrap() error {
	return ErrTimeout
}
