// Package audio provides the PCM clip model shared by the synthesis and
// transcription pipelines.
//
// All audio handled by confab is 16-bit little-endian PCM. A [Clip] carries
// its own [Format]; concatenation requires identical formats on every clip
// because a conversion run produces all of its audio through a single
// synthesis provider at one fixed output format — no resampling or channel
// conversion is attempted.
package audio

import (
	"errors"
	"fmt"
	"time"
)

// Format describes the sample rate and channel count of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// String returns a compact human-readable form, e.g. "24000Hz/1ch".
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// bytesPerFrame is the byte size of one sample frame (all channels).
func (f Format) bytesPerFrame() int {
	return 2 * f.Channels
}

// Clip is a handle to decoded 16-bit LE PCM audio data.
type Clip struct {
	// Data is raw interleaved 16-bit little-endian PCM.
	Data []byte

	// Format is the sample rate and channel count of Data.
	Format Format
}

// Frames returns the number of sample frames in the clip.
func (c *Clip) Frames() int {
	bpf := c.Format.bytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return len(c.Data) / bpf
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.Format.SampleRate)
}

// Silence returns a clip of silent PCM of the given duration in format f.
// The duration is rounded down to a whole number of sample frames.
func Silence(d time.Duration, f Format) *Clip {
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	if frames < 0 {
		frames = 0
	}
	return &Clip{
		Data:   make([]byte, frames*f.bytesPerFrame()),
		Format: f,
	}
}

// ErrNoClips is returned by Concat when called with an empty clip list.
var ErrNoClips = errors.New("audio: no clips to concatenate")

// Concat appends the given clips into a single clip by simple sample-stream
// append. All clips must share the same format; a mismatch is an error rather
// than a silent resample.
func Concat(clips ...*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	format := clips[0].Format
	total := 0
	for i, c := range clips {
		if c.Format != format {
			return nil, fmt.Errorf("audio: clip %d has format %s, want %s", i, c.Format, format)
		}
		total += len(c.Data)
	}
	out := &Clip{
		Data:   make([]byte, 0, total),
		Format: format,
	}
	for _, c := range clips {
		out.Data = append(out.Data, c.Data...)
	}
	return out, nil
}
