package comm

import (
	"encoding/binary"
	"math"
)

// Payload framing and numeric encodings for the NATS backend. Everything is
// little-endian and fixed-width so that frames can be decoded without
// reflection on the subscription callback path.

const frameHeaderLen = 8

// encodeFrame prepends the source rank and collective sequence number to the
// payload.
func encodeFrame(src, seq uint32, payload []byte) []byte {
	frame := make([]byte, frameHeaderLen+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], src)
	binary.LittleEndian.PutUint32(frame[4:8], seq)
	copy(frame[frameHeaderLen:], payload)
	return frame
}

// decodeFrame splits a frame into its header fields and payload. The payload
// aliases the frame's backing array.
func decodeFrame(frame []byte) (src, seq uint32, payload []byte, ok bool) {
	if len(frame) < frameHeaderLen {
		return 0, 0, nil, false
	}
	src = binary.LittleEndian.Uint32(frame[0:4])
	seq = binary.LittleEndian.Uint32(frame[4:8])
	return src, seq, frame[frameHeaderLen:], true
}

func encodeFloats(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float64 {
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vec
}

// encodeIntPair packs two ints as int64s, used for the (color, key)
// exchange during Split.
func encodeIntPair(a, b int) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(int64(a)))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(b)))
	return buf
}

func decodeIntPair(buf []byte) (int, int) {
	a := int64(binary.LittleEndian.Uint64(buf[0:8]))
	b := int64(binary.LittleEndian.Uint64(buf[8:16]))
	return int(a), int(b)
}
