// Package synth turns a parsed conversation script into one combined audio
// file: it resolves a voice per speaker, synthesizes each utterance through a
// tts.Provider, and concatenates the clips with a fixed silence gap between
// them.
//
// Synthesis is strictly sequential. Per-utterance failures are handled
// according to the configured policy: skipped (the default, best effort) or
// aborting the whole run.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/conversation"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/audio/wav"
	"github.com/MrWong99/confab/pkg/provider/tts"
)

// DefaultGap is the silence inserted between consecutive clips in the
// combined track.
const DefaultGap = 300 * time.Millisecond

var (
	// ErrNoUtterances is returned when the input script contains no
	// parseable dialogue lines.
	ErrNoUtterances = errors.New("synth: no conversation found in input")

	// ErrNoAudio is returned when every synthesis call failed and there is
	// nothing to export. No output file is written in that case.
	ErrNoAudio = errors.New("synth: no audio segments were generated")
)

// Pipeline assembles conversation audio. Construct with New; the zero value
// is not usable.
type Pipeline struct {
	provider tts.Provider
	gap      time.Duration
	policy   config.FailurePolicy
	metrics  *observe.Metrics
	log      *slog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithGap overrides the inter-clip silence duration.
func WithGap(d time.Duration) Option {
	return func(p *Pipeline) { p.gap = d }
}

// WithFailurePolicy selects how per-utterance synthesis failures are handled.
func WithFailurePolicy(policy config.FailurePolicy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithMetrics sets the metrics instance to record into. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a Pipeline backed by the given TTS provider.
func New(provider tts.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider: provider,
		gap:      DefaultGap,
		policy:   config.FailureSkip,
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

// Result summarises one conversion run.
type Result struct {
	// Utterances is the number of dialogue lines in the input.
	Utterances int

	// Synthesized is how many of them produced an audio segment.
	Synthesized int

	// Skipped is how many were dropped after a synthesis failure.
	Skipped int

	// TrackDuration is the playback length of the exported track.
	TrackDuration time.Duration
}

// Run synthesizes the given utterances and writes the combined track to
// outputPath as a WAV file. Voices are resolved through voices, assigning on
// first sighting. A fixed silence gap precedes every clip except the first
// successfully synthesized one, so a run with one failed utterance yields one
// fewer gap as well.
func (p *Pipeline) Run(ctx context.Context, utts []conversation.Utterance, voices *VoiceMap, outputPath string) (*Result, error) {
	if len(utts) == 0 {
		return nil, ErrNoUtterances
	}

	runID := uuid.NewString()
	log := p.log.With("run_id", runID)
	log.Info("starting synthesis", "utterances", len(utts), "output", outputPath)

	res := &Result{Utterances: len(utts)}
	clips := make([]*audio.Clip, 0, 2*len(utts)-1)

	for i, u := range utts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("synth: run cancelled: %w", err)
		}

		voice := voices.Resolve(u.Speaker)
		log.Debug("synthesizing utterance",
			"index", i, "speaker", u.Speaker, "voice", voice.Name)

		start := time.Now()
		clip, err := p.provider.Synthesize(ctx, u.Text, voice)
		p.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())

		if err != nil {
			p.metrics.RecordUtterance(ctx, "skipped")
			if p.policy == config.FailureAbort {
				return nil, fmt.Errorf("synth: utterance %d (%s): %w", i, u.Speaker, err)
			}
			log.Warn("synthesis failed, skipping utterance",
				"index", i, "speaker", u.Speaker, "error", err)
			res.Skipped++
			continue
		}

		if len(clips) > 0 {
			clips = append(clips, audio.Silence(p.gap, p.provider.Format()))
		}
		clips = append(clips, clip)
		p.metrics.RecordUtterance(ctx, "ok")
		res.Synthesized++
	}

	if res.Synthesized == 0 {
		return nil, ErrNoAudio
	}

	track, err := audio.Concat(clips...)
	if err != nil {
		return nil, fmt.Errorf("synth: combine segments: %w", err)
	}
	if err := wav.WriteFile(outputPath, track); err != nil {
		return nil, fmt.Errorf("synth: export track: %w", err)
	}

	res.TrackDuration = track.Duration()
	log.Info("synthesis complete",
		"segments", res.Synthesized,
		"skipped", res.Skipped,
		"duration", res.TrackDuration,
		"output", outputPath)
	return res, nil
}
