// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., Azure Speech) and
// presents a uniform one-shot interface: given an utterance and a voice, it
// returns one finished audio clip. Confab synthesizes conversation scripts
// strictly one utterance at a time, so there is no streaming surface here —
// per-utterance latency is dominated by the external service either way.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/MrWong99/confab/pkg/audio"
)

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text with the given voice and returns the resulting
	// audio clip. The clip's format is fixed per provider instance — every
	// call on the same Provider yields the same sample rate and channel
	// count, which is what allows callers to concatenate clips without
	// resampling.
	//
	// A failed call returns a nil clip and a non-nil error. Providers do not
	// retry; the retry-or-skip decision belongs to the caller.
	Synthesize(ctx context.Context, text string, voice Voice) (*audio.Clip, error)

	// Format reports the audio format every successful Synthesize call
	// produces.
	Format() audio.Format
}
