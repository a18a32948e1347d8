package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE converts a float32 sample buffer to the little-endian byte
// layout oto's float format expects, appending to recycled and returning the
// result.
func FloatBufferToLE(buff []float32, recycled []byte) []byte {
	for _, v := range buff {
		recycled = binary.LittleEndian.AppendUint32(recycled, math.Float32bits(v))
	}
	return recycled
}
