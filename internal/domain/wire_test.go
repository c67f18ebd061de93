package domain

import (
	"math"
	"testing"
)

func TestEncodeDecodeFrame(t *testing.T) {
	in := Sample{CuffPressure: 120.50, PulsePressure: 80.25}
	frame := EncodeFrame(in)

	if frame[0] != FrameMarker {
		t.Errorf("marker = %#x, want %#x", frame[0], FrameMarker)
	}
	if frame[1] != FramePayloadLen {
		t.Errorf("length = %#x, want %#x", frame[1], FramePayloadLen)
	}
	if !VerifyFrame(frame[:]) {
		t.Fatal("encoded frame does not verify")
	}

	out := DecodeFrame(frame[:])
	if math.Abs(out.CuffPressure-in.CuffPressure) > 1e-9 {
		t.Errorf("cuff = %v, want %v", out.CuffPressure, in.CuffPressure)
	}
	if math.Abs(out.PulsePressure-in.PulsePressure) > 1e-9 {
		t.Errorf("pulse = %v, want %v", out.PulsePressure, in.PulsePressure)
	}
}

func TestVerifyFrame_RejectsCorruption(t *testing.T) {
	frame := EncodeFrame(Sample{CuffPressure: 55.5, PulsePressure: 2.0})

	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{"bad marker", func(b []byte) { b[0] = 0xAB }},
		{"bad length", func(b []byte) { b[1] = 0x07 }},
		{"flipped payload bit", func(b []byte) { b[4] ^= 0x01 }},
		{"bad checksum", func(b []byte) { b[10] ^= 0xFF }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupted := frame
			tt.mutate(corrupted[:])
			if VerifyFrame(corrupted[:]) {
				t.Error("corrupted frame verified")
			}
		})
	}

	if VerifyFrame(frame[:5]) {
		t.Error("short buffer verified")
	}
}

func TestOperatingMode_TriggerThreshold(t *testing.T) {
	if got := ModeMeasure.TriggerThreshold(); got != MeasureTrigger {
		t.Errorf("measure threshold = %v, want %v", got, MeasureTrigger)
	}
	if got := ModeLinearDeflate.TriggerThreshold(); got != LinearDeflateTrigger {
		t.Errorf("deflate threshold = %v, want %v", got, LinearDeflateTrigger)
	}
}
