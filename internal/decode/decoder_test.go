package decode

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

func frameBytes(cuff, pulse float64) []byte {
	f := domain.EncodeFrame(domain.Sample{CuffPressure: cuff, PulsePressure: pulse})
	return f[:]
}

func TestIngest_RoundTrip(t *testing.T) {
	d := NewStreamDecoder(0, nil, nil)

	samples := d.Ingest(frameBytes(120.50, 80.25))
	require.Len(t, samples, 1)
	assert.InDelta(t, 120.50, samples[0].CuffPressure, 1e-9)
	assert.InDelta(t, 80.25, samples[0].PulsePressure, 1e-9)
	assert.Equal(t, 0, d.Buffered())
}

func TestIngest_NegativeValues(t *testing.T) {
	d := NewStreamDecoder(0, nil, nil)

	samples := d.Ingest(frameBytes(-3.25, -0.75))
	require.Len(t, samples, 1)
	assert.InDelta(t, -3.25, samples[0].CuffPressure, 1e-9)
	assert.InDelta(t, -0.75, samples[0].PulsePressure, 1e-9)
}

func TestIngest_ChunkingInvariance(t *testing.T) {
	var stream []byte
	var want []domain.Sample
	for i := 0; i < 40; i++ {
		cuff := float64(i) * 7.13
		pulse := float64(i) * 0.45
		stream = append(stream, frameBytes(cuff, pulse)...)
		want = append(want, domain.Sample{CuffPressure: cuff, PulsePressure: pulse})
	}
	// Garbage between some frames, including stray marker bytes.
	stream = append([]byte{0x00, domain.FrameMarker, 0x13}, stream...)

	whole := NewStreamDecoder(0, nil, nil).Ingest(stream)

	for _, chunkSize := range []int{1, 2, 3, 7, 11, 64} {
		d := NewStreamDecoder(0, nil, nil)
		var got []domain.Sample
		for start := 0; start < len(stream); start += chunkSize {
			end := start + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, d.Ingest(stream[start:end])...)
		}
		assert.Equal(t, whole, got, "chunk size %d", chunkSize)
	}

	// Random chunk boundaries.
	rng := rand.New(rand.NewSource(42))
	d := NewStreamDecoder(0, nil, nil)
	var got []domain.Sample
	for start := 0; start < len(stream); {
		end := start + 1 + rng.Intn(30)
		if end > len(stream) {
			end = len(stream)
		}
		got = append(got, d.Ingest(stream[start:end])...)
		start = end
	}
	require.Equal(t, whole, got)
	require.InDelta(t, want[1].CuffPressure, whole[1].CuffPressure, 1e-9)
}

func TestIngest_EmbeddedFrame(t *testing.T) {
	frame := frameBytes(98.40, 1.20)
	stream := append([]byte{0x01, domain.FrameMarker, 0xFF, 0x7E}, frame...)
	stream = append(stream, 0x00, domain.FrameMarker, 0x42)

	d := NewStreamDecoder(0, nil, nil)
	samples := d.Ingest(stream)

	require.Len(t, samples, 1)
	assert.InDelta(t, 98.40, samples[0].CuffPressure, 1e-9)
}

func TestIngest_ChecksumFailureResync(t *testing.T) {
	bad := frameBytes(50.00, 2.00)
	bad[10] ^= 0xFF
	good := frameBytes(51.00, 2.10)

	d := NewStreamDecoder(0, nil, nil)
	samples := d.Ingest(append(bad, good...))

	require.Len(t, samples, 1)
	assert.InDelta(t, 51.00, samples[0].CuffPressure, 1e-9)
}

func TestIngest_BadLengthDoesNotSkipFollowingFrame(t *testing.T) {
	// A stray marker with a wrong length byte immediately before a valid
	// frame. Advancing by a full frame width here would lose the real frame.
	stream := append([]byte{domain.FrameMarker, 0x07}, frameBytes(77.70, 0.50)...)

	d := NewStreamDecoder(0, nil, nil)
	samples := d.Ingest(stream)

	require.Len(t, samples, 1)
	assert.InDelta(t, 77.70, samples[0].CuffPressure, 1e-9)
}

func TestIngest_PartialFrameAcrossCalls(t *testing.T) {
	frame := frameBytes(140.00, 3.00)

	d := NewStreamDecoder(0, nil, nil)
	assert.Empty(t, d.Ingest(frame[:5]))
	assert.Equal(t, 5, d.Buffered())

	samples := d.Ingest(frame[5:])
	require.Len(t, samples, 1)
	assert.Equal(t, 0, d.Buffered())
}

func TestIngest_OverflowResetsBuffer(t *testing.T) {
	d := NewStreamDecoder(32, nil, nil)

	// Park the front half of a valid frame in the buffer.
	frame := frameBytes(200.00, 4.00)
	d.Ingest(frame[:6])
	require.Equal(t, 6, d.Buffered())

	// A chunk that does not fit forces a full reset: the parked bytes are
	// gone and the tail of the frame must not splice into a sample.
	filler := make([]byte, 30)
	assert.Empty(t, d.Ingest(filler))
	assert.Empty(t, d.Ingest(frame[6:]))

	// A complete frame decodes again after the reset.
	samples := d.Ingest(frame)
	require.Len(t, samples, 1)
	assert.InDelta(t, 200.00, samples[0].CuffPressure, 1e-9)
}

func TestIngest_OversizedChunkKeepsTail(t *testing.T) {
	d := NewStreamDecoder(32, nil, nil)

	frame := frameBytes(66.00, 1.00)
	chunk := append(make([]byte, 40), frame...)

	samples := d.Ingest(chunk)
	require.Len(t, samples, 1)
	assert.InDelta(t, 66.00, samples[0].CuffPressure, 1e-9)
}

func TestIngest_GarbageOnly(t *testing.T) {
	d := NewStreamDecoder(0, nil, nil)

	garbage := make([]byte, 256)
	rng := rand.New(rand.NewSource(7))
	rng.Read(garbage)
	// Clear marker bytes so nothing can verify by coincidence.
	for i := range garbage {
		if garbage[i] == domain.FrameMarker {
			garbage[i] = 0
		}
	}

	assert.Empty(t, d.Ingest(garbage))
	// Everything but a trailing sub-frame window is consumed.
	assert.Less(t, d.Buffered(), domain.FrameSize)
}

func TestReset_DropsBufferedBytes(t *testing.T) {
	d := NewStreamDecoder(0, nil, nil)
	frame := frameBytes(90.00, 2.00)

	d.Ingest(frame[:8])
	require.Equal(t, 8, d.Buffered())

	d.Reset()
	assert.Equal(t, 0, d.Buffered())
	assert.Empty(t, d.Ingest(frame[8:]))
}
