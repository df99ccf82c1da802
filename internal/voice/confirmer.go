// Package voice speaks confirmation messages after an intake completes.
package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"incident-relay/internal/common/audio"
	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/common/tts"
)

const DefaultLeadIn = 500 * time.Millisecond

// Confirmer synthesizes text and plays it, led by a short silence so the
// start of speech is not clipped by the output device.
type Confirmer struct {
	synth  tts.Synthesizer
	player audio.Player
	leadIn time.Duration
	logger logger.Logger
	obs    *observability.Observability

	decode func([]byte) (*audio.PCM, error)
	wg     sync.WaitGroup
}

func NewConfirmer(synth tts.Synthesizer, player audio.Player, leadIn time.Duration, log logger.Logger, obs *observability.Observability) *Confirmer {
	return &Confirmer{
		synth:  synth,
		player: player,
		leadIn: leadIn,
		logger: log,
		obs:    obs,
		decode: audio.DecodeMP3,
	}
}

// Speak synthesizes text and plays it. With blocking false, playback runs on
// a goroutine and Speak returns once the audio is ready; playback errors are
// only logged. Synthesis always happens before Speak returns.
func (c *Confirmer) Speak(ctx context.Context, text string, blocking bool) error {
	start := time.Now()

	encoded, err := c.synth.Synthesize(ctx, text)
	if err != nil {
		c.fail(ctx, start, "synthesis_failed")
		return errors.NewSpeechSynthesisFailedError(err)
	}

	pcm, err := c.decode(encoded)
	if err != nil {
		c.fail(ctx, start, "decode_failed")
		return errors.NewSpeechSynthesisFailedError(fmt.Errorf("decode speech: %w", err))
	}
	pcm = audio.PrependSilence(pcm, c.leadIn)

	c.logger.Debug("speech synthesized", map[string]interface{}{
		"bytes":      len(encoded),
		"durationMs": pcm.Duration().Milliseconds(),
		"blocking":   blocking,
	})

	if blocking {
		return c.play(ctx, pcm, start)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.play(context.WithoutCancel(ctx), pcm, start); err != nil {
			c.logger.Warn("background playback failed", map[string]interface{}{
				"errorCode": string(errors.ErrCodeAudioPlaybackFailed),
				"error":     err,
			})
		}
	}()
	return nil
}

// Wait blocks until background playback started by Speak has finished.
func (c *Confirmer) Wait() {
	c.wg.Wait()
}

func (c *Confirmer) play(ctx context.Context, pcm *audio.PCM, start time.Time) error {
	if err := c.player.Play(ctx, pcm); err != nil {
		c.fail(ctx, start, "playback_failed")
		return errors.NewAudioPlaybackFailedError(err)
	}
	metrics.ConfirmationsSpoken.WithLabelValues("ok").Inc()
	c.obs.RecordStage(ctx, observability.StageSpeak, time.Since(start), "ok")
	return nil
}

func (c *Confirmer) fail(ctx context.Context, start time.Time, outcome string) {
	metrics.ConfirmationsSpoken.WithLabelValues(outcome).Inc()
	c.obs.RecordStage(ctx, observability.StageSpeak, time.Since(start), outcome)
}
