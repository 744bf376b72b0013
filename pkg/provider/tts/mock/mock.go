// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled audio clips to consumers and to verify
// which text and voice each synthesis call received. Per-call failures can be
// scripted through FailOn or a custom SynthesizeFunc.
//
// Example:
//
//	p := mock.NewProvider(audio.Format{SampleRate: 24000, Channels: 1})
//	p.FailOn[1] = errors.New("throttled") // second call fails
//	clip, err := p.Synthesize(ctx, "Hello there.", tts.Voice{Name: "v1"})
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Text is the utterance text passed to Synthesize.
	Text string
	// Voice is the voice passed to Synthesize.
	Voice tts.Voice
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// ClipDuration is the playback length of each fabricated clip.
	// Defaults to 100ms when zero.
	ClipDuration time.Duration

	// FailOn maps zero-based call indices to the error returned for that
	// call. Calls not present in the map succeed.
	FailOn map[int]error

	// SynthesizeFunc, when non-nil, replaces the default fabrication logic
	// entirely. FailOn is ignored in that case.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.Voice) (*audio.Clip, error)

	// --- Call records ---

	// Calls records every Synthesize invocation in order.
	Calls []SynthesizeCall

	format audio.Format
}

// NewProvider creates a mock Provider producing clips in the given format.
func NewProvider(format audio.Format) *Provider {
	return &Provider{
		format: format,
		FailOn: make(map[int]error),
	}
}

// Synthesize records the call and returns either a fabricated silent clip of
// ClipDuration or the scripted error for this call index.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (*audio.Clip, error) {
	p.mu.Lock()
	idx := len(p.Calls)
	p.Calls = append(p.Calls, SynthesizeCall{Text: text, Voice: voice})
	fn := p.SynthesizeFunc
	err := p.FailOn[idx]
	dur := p.ClipDuration
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, voice)
	}
	if err != nil {
		return nil, err
	}
	if dur == 0 {
		dur = 100 * time.Millisecond
	}
	return audio.Silence(dur, p.format), nil
}

// Format returns the format configured at construction.
func (p *Provider) Format() audio.Format { return p.format }

// Reset clears all recorded calls and scripted failures. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.FailOn = make(map[int]error)
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
