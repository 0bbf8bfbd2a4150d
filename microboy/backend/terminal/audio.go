package terminal

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/valerio/go-microboy/microboy/audio"
	"github.com/valerio/go-microboy/microboy/backend"
)

const (
	// streamLimit bounds the queued audio to a quarter second.
	streamLimit   = audio.SampleRate / 4
	otoBufferSize = 50 * time.Millisecond
)

// otoPlayer plays the drained APU samples through the host audio device.
type otoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	stream *backend.SampleStream
}

func newOtoPlayer() (*otoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	p := &otoPlayer{
		ctx:    ctx,
		stream: backend.NewSampleStream(1, streamLimit),
	}
	p.player = ctx.NewPlayer(p.stream)
	p.player.Play()
	return p, nil
}

func (p *otoPlayer) push(samples []float32) {
	p.stream.Push(samples)
}

func (p *otoPlayer) close() error {
	return p.player.Close()
}
