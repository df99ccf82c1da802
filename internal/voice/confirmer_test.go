package voice

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"incident-relay/internal/common/audio"
	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/delivery"
	"incident-relay/internal/incident"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	audio []byte
	err   error
	text  string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.text = text
	return f.audio, f.err
}

type fakePlayer struct {
	mu     sync.Mutex
	played []*audio.PCM
	err    error
}

func (f *fakePlayer) Play(_ context.Context, pcm *audio.PCM) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, pcm)
	return f.err
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func newTestConfirmer(t *testing.T, s *fakeSynth, p *fakePlayer) *Confirmer {
	c := NewConfirmer(s, p, DefaultLeadIn, logger.NewTestLogger(t), nil)
	c.decode = func(b []byte) (*audio.PCM, error) {
		return &audio.PCM{SampleRate: 1000, Data: b}, nil
	}
	return c
}

func TestSpeak_Blocking(t *testing.T) {
	s := &fakeSynth{audio: []byte{1, 2, 3, 4}}
	p := &fakePlayer{}

	err := newTestConfirmer(t, s, p).Speak(context.Background(), "Incident recorded", true)
	require.NoError(t, err)

	assert.Equal(t, "Incident recorded", s.text)
	require.Equal(t, 1, p.count())
	// 500 ms at 1 kHz stereo 16-bit is 500 frames of 4 bytes.
	assert.Len(t, p.played[0].Data, 2000+4)
	assert.Equal(t, []byte{1, 2, 3, 4}, p.played[0].Data[2000:])
}

func TestSpeak_NonBlocking(t *testing.T) {
	p := &fakePlayer{}
	c := newTestConfirmer(t, &fakeSynth{audio: []byte{1, 2, 3, 4}}, p)

	require.NoError(t, c.Speak(context.Background(), "hello", false))
	c.Wait()
	assert.Equal(t, 1, p.count())
}

func TestSpeak_NonBlockingPlaybackErrorIsSwallowed(t *testing.T) {
	p := &fakePlayer{err: stderrors.New("no device")}
	c := newTestConfirmer(t, &fakeSynth{audio: []byte{1, 2, 3, 4}}, p)

	assert.NoError(t, c.Speak(context.Background(), "hello", false))
	c.Wait()
}

func TestSpeak_Failures(t *testing.T) {
	c := newTestConfirmer(t, &fakeSynth{err: stderrors.New("401")}, &fakePlayer{})
	err := c.Speak(context.Background(), "hello", true)
	assert.Equal(t, errors.ErrCodeSpeechSynthesisFailed, errors.Normalize(err).Code)

	c = newTestConfirmer(t, &fakeSynth{audio: []byte{1}}, &fakePlayer{err: stderrors.New("no device")})
	err = c.Speak(context.Background(), "hello", true)
	assert.Equal(t, errors.ErrCodeAudioPlaybackFailed, errors.Normalize(err).Code)

	c = newTestConfirmer(t, &fakeSynth{audio: []byte{1}}, &fakePlayer{})
	c.decode = func([]byte) (*audio.PCM, error) { return nil, audio.ErrEmptyStream }
	err = c.Speak(context.Background(), "hello", true)
	assert.True(t, stderrors.Is(err, audio.ErrEmptyStream))
}

func TestConfirmationMessage(t *testing.T) {
	record := incident.Record{
		PolicyID:     "PL-4829",
		CustomerName: "Sarah Thompson",
		IncidentType: "Auto Accident",
		IncidentDate: time.Now().Format(incident.DateLayout),
	}

	msg := ConfirmationMessage(record, delivery.Result{Success: true, StatusCode: 200})
	assert.Equal(t, "Thank you, Sarah Thompson. Your incident report for the Auto Accident on policy PL-4829 has been submitted.", msg)

	unknown := incident.Record{PolicyID: "UNKNOWN", CustomerName: "UNKNOWN", IncidentType: "unspecified"}
	assert.Equal(t, "Thank you, there. Your incident report has been submitted.",
		ConfirmationMessage(unknown, delivery.Result{Success: true}))

	assert.Contains(t, ConfirmationMessage(record, delivery.Result{Success: false}), "could not submit")
}

func TestRejectionMessage(t *testing.T) {
	assert.Contains(t, RejectionMessage(""), "could not understand")
	assert.Equal(t, "Sorry, the incident report is incomplete: incidentDate must be in YYYY-MM-DD format.",
		RejectionMessage("incidentDate must be in YYYY-MM-DD format"))
}
