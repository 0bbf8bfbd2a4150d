package backend

import (
	"encoding/binary"
	"math"
	"sync"
)

// bytesPerSample is the size of one float32 sample per channel.
const bytesPerSample = 4

// SampleStream buffers mono samples pushed by the emulation loop and serves
// them as little endian float32 PCM to an audio player goroutine. Underruns
// are filled with silence and the buffer is bounded, dropping the oldest
// samples.
type SampleStream struct {
	mu       sync.Mutex
	buf      []float32
	channels int
	limit    int

	underruns uint64
}

// NewSampleStream creates a stream that duplicates every sample across
// channels and keeps at most limit samples queued.
func NewSampleStream(channels, limit int) *SampleStream {
	return &SampleStream{
		buf:      make([]float32, 0, limit),
		channels: max(channels, 1),
		limit:    limit,
	}
}

// Push queues samples for playback.
func (s *SampleStream) Push(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, samples...)
	if over := len(s.buf) - s.limit; over > 0 {
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
}

// Buffered returns the number of queued samples.
func (s *SampleStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Underruns counts the frames filled with silence.
func (s *SampleStream) Underruns() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underruns
}

// Read implements io.Reader. It never blocks and always fills whole frames
// of p.
func (s *SampleStream) Read(p []byte) (int, error) {
	frameSize := bytesPerSample * s.channels
	frames := len(p) / frameSize

	s.mu.Lock()
	n := min(frames, len(s.buf))
	queued := s.buf[:n]
	if n < frames {
		s.underruns++
	}
	for i := range frames {
		sample := float32(0)
		if i < n {
			sample = queued[i]
		}
		bits := math.Float32bits(sample)
		for c := range s.channels {
			binary.LittleEndian.PutUint32(p[(i*s.channels+c)*bytesPerSample:], bits)
		}
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
	s.mu.Unlock()

	return frames * frameSize, nil
}
