// Package capture provides PCM audio sources for transcription: WAV files
// and the system microphone. A Source streams raw little-endian 16-bit PCM
// in small chunks sized for a live recognition session.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/audio/wav"
)

// chunkDuration is the playback length of each streamed chunk. 100ms keeps
// the recognizer fed at roughly real-time granularity without flooding it.
const chunkDuration = 10 // 1/10 s, expressed as a divisor of the sample rate

// ErrUnsupportedFormat is returned for input files that are not WAV. The
// check happens before any file or network access.
var ErrUnsupportedFormat = errors.New("capture: only WAV input files are supported")

// Source streams PCM audio to a consumer.
type Source interface {
	// Format reports the PCM format of the streamed data.
	Format() audio.Format

	// Stream pushes audio chunks into sink until the source is exhausted or
	// ctx is cancelled. A sink error stops the stream and is returned as-is.
	Stream(ctx context.Context, sink func(chunk []byte) error) error
}

// WAVSource streams the contents of a decoded WAV file.
type WAVSource struct {
	clip *audio.Clip
}

// OpenWAV loads a WAV file as a Source. Files without a .wav extension are
// rejected up front.
func OpenWAV(path string) (*WAVSource, error) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	clip, err := wav.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return &WAVSource{clip: clip}, nil
}

// Format implements Source.
func (s *WAVSource) Format() audio.Format { return s.clip.Format }

// Stream implements Source. Chunks are 100ms of audio; the final chunk may
// be shorter.
func (s *WAVSource) Stream(ctx context.Context, sink func(chunk []byte) error) error {
	chunkBytes := s.clip.Format.SampleRate / chunkDuration * s.clip.Format.Channels * 2
	if chunkBytes < 1 {
		return fmt.Errorf("capture: invalid audio format %s", s.clip.Format)
	}
	data := s.clip.Data

	for off := 0; off < len(data); off += chunkBytes {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + chunkBytes
		if end > len(data) {
			end = len(data)
		}
		if err := sink(data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// readerSource streams PCM from an io.Reader. It backs the microphone source
// and is reused in tests with an in-memory reader.
type readerSource struct {
	r      io.Reader
	format audio.Format
	close  func() error
}

func (s *readerSource) Format() audio.Format { return s.format }

func (s *readerSource) Stream(ctx context.Context, sink func(chunk []byte) error) error {
	if s.close != nil {
		defer s.close() //nolint:errcheck // stream errors take precedence
	}
	chunkBytes := s.format.SampleRate / chunkDuration * s.format.Channels * 2
	buf := make([]byte, chunkBytes)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.r.Read(buf)
		if n > 0 {
			if sinkErr := sink(buf[:n]); sinkErr != nil {
				return sinkErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("capture: read audio: %w", err)
		}
	}
}

var (
	_ Source = (*WAVSource)(nil)
	_ Source = (*readerSource)(nil)
)
