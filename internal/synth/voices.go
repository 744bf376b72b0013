package synth

import "github.com/MrWong99/confab/pkg/provider/tts"

// DefaultVoices is the fallback voice rotation used when a speaker has no
// configured voice. Speakers cycle through it in first-seen order.
var DefaultVoices = []string{
	"en-US-JennyNeural",
	"en-US-GuyNeural",
	"en-US-AriaNeural",
	"en-US-DavisNeural",
	"en-GB-SoniaNeural",
	"en-AU-NatashaNeural",
}

// VoiceMap assigns synthesis voices to speaker names for one conversion run.
// Assignment is stable: the first resolution for a speaker is recorded and
// every later resolution returns the same voice. A configured override always
// wins; otherwise the speaker at first-seen index i receives defaults[i mod
// len(defaults)].
//
// Not safe for concurrent use; the assembly pipeline resolves voices strictly
// sequentially.
type VoiceMap struct {
	overrides map[string]string
	defaults  []string
	assigned  map[string]tts.Voice
}

// NewVoiceMap creates a VoiceMap with the given per-speaker overrides and
// default rotation. A nil or empty defaults slice falls back to
// [DefaultVoices].
func NewVoiceMap(overrides map[string]string, defaults []string) *VoiceMap {
	if len(defaults) == 0 {
		defaults = DefaultVoices
	}
	return &VoiceMap{
		overrides: overrides,
		defaults:  defaults,
		assigned:  make(map[string]tts.Voice),
	}
}

// Resolve returns the voice for speaker, assigning one on first sighting.
func (m *VoiceMap) Resolve(speaker string) tts.Voice {
	if v, ok := m.assigned[speaker]; ok {
		return v
	}
	var v tts.Voice
	if name, ok := m.overrides[speaker]; ok && name != "" {
		v = tts.Voice{Name: name}
	} else {
		v = tts.Voice{Name: m.defaults[len(m.assigned)%len(m.defaults)]}
	}
	m.assigned[speaker] = v
	return v
}

// Assignments returns a copy of the speaker → voice name map accumulated so
// far, for logging.
func (m *VoiceMap) Assignments() map[string]string {
	out := make(map[string]string, len(m.assigned))
	for s, v := range m.assigned {
		out[s] = v.Name
	}
	return out
}
