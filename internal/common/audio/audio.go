// Package audio decodes synthesized speech and plays it on the local device.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

const (
	ChannelCount   = 2
	BytesPerSample = 2
	frameSize      = ChannelCount * BytesPerSample
)

var ErrEmptyStream = errors.New("EMPTY_AUDIO_STREAM")

// PCM is signed 16-bit little-endian interleaved stereo audio.
type PCM struct {
	SampleRate int
	Data       []byte
}

// Duration is the playback length of the buffer.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	frames := len(p.Data) / frameSize
	return time.Duration(frames) * time.Second / time.Duration(p.SampleRate)
}

// DecodeMP3 decodes an MP3 stream into PCM.
func DecodeMP3(data []byte) (*PCM, error) {
	if len(data) == 0 {
		return nil, ErrEmptyStream
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	return &PCM{SampleRate: dec.SampleRate(), Data: pcm}, nil
}

// PrependSilence returns a copy of p led by d of silence.
func PrependSilence(p *PCM, d time.Duration) *PCM {
	if d <= 0 || p.SampleRate <= 0 {
		return p
	}
	frames := int(int64(p.SampleRate) * int64(d) / int64(time.Second))
	silence := frames * frameSize

	out := make([]byte, silence+len(p.Data))
	copy(out[silence:], p.Data)
	return &PCM{SampleRate: p.SampleRate, Data: out}
}
