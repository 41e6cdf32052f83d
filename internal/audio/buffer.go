package audio

import (
	"sync"
	"time"
)

// DefaultSampleRate is assumed when a session finishes without the driver
// ever reporting the audio-context sample rate.
const DefaultSampleRate = 48000

// Buffer accumulates raw float32 PCM samples for a single session.
//
// The driver is the only writer; finalization is the only reader and it
// begins by calling Close, so the mutex only matters for the short window
// where a trailing frame races the finalizer.
type Buffer struct {
	samples    []float32
	sampleRate int
	fallback   int

	// Frame accounting
	framesAppended uint64
	framesDropped  uint64

	closed     bool
	lastUpdate time.Time

	mu sync.Mutex
}

// BufferStats represents buffer statistics for monitoring.
type BufferStats struct {
	Samples        int     `json:"samples"`
	SampleRate     int     `json:"sample_rate"`
	FramesAppended uint64  `json:"frames_appended"`
	FramesDropped  uint64  `json:"frames_dropped"`
	Seconds        float64 `json:"seconds"`
}

// NewBuffer creates an empty audio buffer with the default fallback rate.
func NewBuffer() *Buffer {
	return NewBufferWithFallback(DefaultSampleRate)
}

// NewBufferWithFallback creates an empty audio buffer that assumes the
// given rate when the driver never reports one.
func NewBufferWithFallback(fallback int) *Buffer {
	if fallback <= 0 {
		fallback = DefaultSampleRate
	}
	return &Buffer{
		samples:    make([]float32, 0, fallback*2), // pre-allocate ~2s
		fallback:   fallback,
		lastUpdate: time.Now(),
	}
}

// Append adds one driver audio frame to the buffer in delivery order.
// It reports false when the buffer is already closed; the frame is dropped
// and counted, never partially written.
func (b *Buffer) Append(frame []float32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.framesDropped++
		return false
	}

	b.samples = append(b.samples, frame...)
	b.framesAppended++
	b.lastUpdate = time.Now()
	return true
}

// SetSampleRate records the sample rate reported by the driver's audio
// context. The first report wins; later reports are ignored and reported
// as false so the caller can log them.
func (b *Buffer) SetSampleRate(rate int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sampleRate != 0 || rate <= 0 {
		return false
	}
	b.sampleRate = rate
	return true
}

// SampleRate returns the captured sample rate, or the configured fallback
// if the driver never reported one.
func (b *Buffer) SampleRate() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveRate()
}

// effectiveRate must be called with the mutex held.
func (b *Buffer) effectiveRate() int {
	if b.sampleRate != 0 {
		return b.sampleRate
	}
	if b.fallback != 0 {
		return b.fallback
	}
	return DefaultSampleRate
}

// Close permanently stops ingestion. Frames arriving after Close are
// dropped. Close is idempotent.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Snapshot returns a copy of the accumulated samples. It is intended to be
// called after Close, once ingestion has permanently stopped.
func (b *Buffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the current number of accumulated samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Duration returns the captured audio duration based on the effective
// sample rate.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	rate := b.effectiveRate()
	return time.Duration(float64(len(b.samples)) / float64(rate) * float64(time.Second))
}

// FramesDropped returns the number of frames rejected after Close.
func (b *Buffer) FramesDropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.framesDropped
}

// GetStats returns current buffer statistics.
func (b *Buffer) GetStats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	rate := b.effectiveRate()

	return BufferStats{
		Samples:        len(b.samples),
		SampleRate:     rate,
		FramesAppended: b.framesAppended,
		FramesDropped:  b.framesDropped,
		Seconds:        float64(len(b.samples)) / float64(rate),
	}
}
