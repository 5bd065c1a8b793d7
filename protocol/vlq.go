package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqMaxLen is the longest encoding of a 32-bit value
const vlqMaxLen = 5

// EncodeVLQUint writes v as a variable length quantity: 7 bits per byte,
// most significant group first, continuation in bit 7. The first byte is
// sign extended from bit 5 so values near 2^32 stay short.
func EncodeVLQUint(output OutputBuffer, v uint32) {
	var tmp [vlqMaxLen]byte
	sv := int32(v)
	n := 0
	for shift := 28; shift > 0; shift -= 7 {
		// one byte less holds [-lim, 3*lim)
		lim := int32(1) << (shift - 2)
		if n > 0 || sv < -lim || sv >= 3*lim {
			tmp[n] = byte(sv>>shift)&0x7F | 0x80
			n++
		}
	}
	tmp[n] = byte(sv) & 0x7F
	output.Output(tmp[:n+1])
}

// DecodeVLQUint reads one value written by EncodeVLQUint and advances data
// past it. On error data is left untouched.
func DecodeVLQUint(data *[]byte) (uint32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := buf[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 1
	for c&0x80 != 0 {
		if i == vlqMaxLen {
			return 0, ErrInvalidVLQ
		}
		if i == len(buf) {
			return 0, ErrBufferTooSmall
		}
		c = buf[i]
		i++
		v = v<<7 | uint32(c&0x7F)
	}

	*data = buf[i:]
	return v, nil
}
