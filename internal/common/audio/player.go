package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays PCM audio until it finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, pcm *PCM) error
}

// Speaker plays through the default output device. oto allows a single
// context per process, so the device is opened once at the first sample rate
// seen and later buffers must match it.
type Speaker struct {
	once       sync.Once
	ctx        *oto.Context
	sampleRate int
	initErr    error
	mu         sync.Mutex
}

func NewSpeaker() *Speaker {
	return &Speaker{}
}

func (s *Speaker) open(sampleRate int) error {
	s.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			s.initErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		s.ctx = ctx
		s.sampleRate = sampleRate
	})
	if s.initErr != nil {
		return s.initErr
	}
	if s.sampleRate != sampleRate {
		return fmt.Errorf("audio device opened at %d Hz, got %d Hz", s.sampleRate, sampleRate)
	}
	return nil
}

// Play blocks until the buffer has been played.
func (s *Speaker) Play(ctx context.Context, pcm *PCM) error {
	if err := s.open(pcm.SampleRate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.ctx.NewPlayer(bytes.NewReader(pcm.Data))
	defer player.Close()

	player.Play()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
