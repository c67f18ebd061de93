package domain

import (
	"encoding/binary"
	"math"
)

// Wire format of one device frame. Frames are fixed-length and unescaped;
// the marker byte can occur inside a payload, so a candidate frame is only
// accepted once its length byte and checksum both verify.
const (
	// FrameSize is the total length of one frame on the wire.
	FrameSize = 11

	// FrameMarker identifies a candidate frame start.
	FrameMarker = 0xAA

	// FramePayloadLen is the mandatory value of the length byte.
	FramePayloadLen = 0x08

	// Payload field offsets within a frame.
	cuffOffset  = 2
	pulseOffset = 6

	// checksumOffset is the index of the trailing XOR checksum.
	checksumOffset = 10

	// rawScale converts raw int32 payload values to mmHg.
	rawScale = 100.0
)

// Checksum computes the XOR of the first checksumOffset bytes of frame.
// frame must hold at least FrameSize bytes.
func Checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[:checksumOffset] {
		sum ^= b
	}
	return sum
}

// VerifyFrame reports whether the FrameSize bytes at the start of buf form a
// structurally valid frame: marker, length byte, and checksum all match.
func VerifyFrame(buf []byte) bool {
	if len(buf) < FrameSize {
		return false
	}
	if buf[0] != FrameMarker || buf[1] != FramePayloadLen {
		return false
	}
	return Checksum(buf) == buf[checksumOffset]
}

// DecodeFrame decodes a verified frame into a Sample. The payload fields are
// little-endian signed 32-bit integers scaled by 1/100.
func DecodeFrame(buf []byte) Sample {
	cuff := int32(binary.LittleEndian.Uint32(buf[cuffOffset : cuffOffset+4]))
	pulse := int32(binary.LittleEndian.Uint32(buf[pulseOffset : pulseOffset+4]))
	return Sample{
		CuffPressure:  float64(cuff) / rawScale,
		PulsePressure: float64(pulse) / rawScale,
	}
}

// EncodeFrame encodes a sample into the wire format. Used by the replay tool
// and by tests; the device itself is the usual producer.
func EncodeFrame(s Sample) [FrameSize]byte {
	var frame [FrameSize]byte
	frame[0] = FrameMarker
	frame[1] = FramePayloadLen
	binary.LittleEndian.PutUint32(frame[cuffOffset:], uint32(int32(math.Round(s.CuffPressure*rawScale))))
	binary.LittleEndian.PutUint32(frame[pulseOffset:], uint32(int32(math.Round(s.PulsePressure*rawScale))))
	frame[checksumOffset] = Checksum(frame[:])
	return frame
}
