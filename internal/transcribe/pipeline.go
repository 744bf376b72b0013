package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/confab/internal/capture"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/pkg/provider/stt"
)

// State tracks a pipeline through its lifecycle.
type State int

const (
	// StateIdle means no session has been started yet.
	StateIdle State = iota

	// StateTranscribing means a session is live and events are flowing.
	StateTranscribing

	// StateStopped means the terminal event arrived. Cancellation and normal
	// completion both land here.
	StateStopped
)

// String returns the state's log name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTranscribing:
		return "transcribing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Pipeline drives one transcription session: it streams audio from a
// capture.Source into an stt.Session and folds the resulting events into a
// Transcript. Construct with New.
type Pipeline struct {
	provider stt.Provider
	metrics  *observe.Metrics
	log      *slog.Logger
	echo     io.Writer
	now      func() time.Time

	mu    sync.Mutex
	state State
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithMetrics sets the metrics instance to record into. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEcho mirrors each recognized entry to w as a "Speaker: text" line, for
// live console output. Nil disables echoing.
func WithEcho(w io.Writer) Option {
	return func(p *Pipeline) { p.echo = w }
}

// WithClock overrides the wall-clock source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline backed by the given STT provider.
func New(provider stt.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run transcribes source until it is exhausted or ctx is cancelled, and
// returns the accumulated transcript. Cancellation is not an error: the
// session winds down through its normal terminal event and whatever was
// recognized up to that point is returned, so callers can still persist a
// partial transcript after an interrupt.
func (p *Pipeline) Run(ctx context.Context, source capture.Source, language string) (*Transcript, error) {
	cfg := stt.SessionConfig{
		SampleRate: source.Format().SampleRate,
		Channels:   source.Format().Channels,
		Language:   language,
	}

	session, err := p.provider.StartSession(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("transcribe: start session: %w", err)
	}

	p.metrics.ActiveSessions.Add(ctx, 1)
	start := time.Now()
	defer func() {
		p.metrics.ActiveSessions.Add(ctx, -1)
		p.metrics.STTSessionDuration.Record(ctx, time.Since(start).Seconds())
	}()

	p.setState(StateTranscribing)
	p.log.Info("transcription started", "sample_rate", cfg.SampleRate, "language", cfg.Language)

	// Feed audio on the side; the event loop below owns completion. Once the
	// source runs dry the session is stopped so the service flushes its
	// final results.
	streamErr := make(chan error, 1)
	go func() {
		err := source.Stream(ctx, session.SendAudio)
		if stopErr := session.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
		streamErr <- err
	}()

	transcript := NewTranscript()
	for ev := range session.Events() {
		p.metrics.RecordRecognitionEvent(ctx, ev.Kind.String())
		switch ev.Kind {
		case stt.EventRecognized:
			entry := transcript.Add(p.now(), ev.SpeakerID, ev.Text)
			p.log.Debug("utterance recognized",
				"speaker", entry.Speaker, "raw_speaker_id", entry.RawSpeakerID, "offset", ev.Offset)
			if p.echo != nil {
				fmt.Fprintf(p.echo, "%s: %s\n", entry.Speaker, entry.Text)
			}
		case stt.EventStopped:
			if ev.Reason != "" {
				p.log.Warn("session stopped", "reason", ev.Reason)
			} else {
				p.log.Info("session stopped")
			}
		}
	}
	p.setState(StateStopped)

	// Audio feed errors that are just the session winding down first are
	// part of normal shutdown; anything else is a real input failure.
	if err := <-streamErr; err != nil &&
		!errors.Is(err, stt.ErrSessionClosed) &&
		!errors.Is(err, context.Canceled) {
		return transcript, fmt.Errorf("transcribe: stream audio: %w", err)
	}

	p.log.Info("transcription complete", "entries", transcript.Len())
	return transcript, nil
}
