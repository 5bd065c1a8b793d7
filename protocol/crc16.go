package protocol

import "github.com/snksoft/crc"

// crc16Table holds CRC-16/MCRF4XX: the X.25 polynomial and reflection
// without the final inversion.
var crc16Table *crc.Table

func init() {
	params := *crc.X25
	params.FinalXor = 0
	crc16Table = crc.NewTable(&params)
}

// CRC16 calculates the checksum carried in the frame trailer
func CRC16(data []byte) uint16 {
	h := crc.NewHashWithTable(crc16Table)
	h.Update(data)
	return h.CRC16()
}
