package debug

import (
	"fmt"
	"math"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/valerio/go-microboy/microboy/audio"
)

const (
	wavBitDepth = 16
	// wavFormatPCM is the RIFF format tag for integer PCM.
	wavFormatPCM = 1
)

// WAVRecorder appends mono float32 samples to a 16 bit PCM WAV file.
type WAVRecorder struct {
	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
	samples int
}

// NewWAVRecorder creates path and prepares it for writing samples produced
// at audio.SampleRate.
func NewWAVRecorder(path string) (*WAVRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file %s: %w", path, err)
	}

	return &WAVRecorder{
		file:    file,
		encoder: wav.NewEncoder(file, audio.SampleRate, wavBitDepth, 1, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write encodes samples, clamped to [-1, 1].
func (r *WAVRecorder) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return os.ErrClosed
	}

	data := r.buf.Data[:0]
	for _, s := range samples {
		s = max(-1, min(1, s))
		data = append(data, int(math.Round(float64(s)*math.MaxInt16)))
	}
	r.buf.Data = data

	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	r.samples += len(samples)
	return nil
}

// Samples returns how many samples were written so far.
func (r *WAVRecorder) Samples() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

// Close finalizes the WAV header and closes the file.
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return nil
	}
	encErr := r.encoder.Close()
	fileErr := r.file.Close()
	r.encoder = nil

	if encErr != nil {
		return fmt.Errorf("failed to finalize WAV: %w", encErr)
	}
	return fileErr
}
