// Package wav encodes and decodes canonical RIFF/WAVE containers holding
// uncompressed 16-bit PCM. It intentionally supports nothing else: compressed
// or non-16-bit WAVs are rejected at decode time so that format surprises
// surface at the file boundary instead of deep inside a pipeline.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MrWong99/confab/pkg/audio"
)

const (
	// formatPCM is the WAVE format tag for uncompressed PCM.
	formatPCM = 1

	bitsPerSample = 16
)

// ErrNotPCM is returned by Decode for WAVs that are not uncompressed 16-bit PCM.
var ErrNotPCM = errors.New("wav: not uncompressed 16-bit PCM")

// Encode writes clip to w as a canonical RIFF/WAVE file with a single fmt
// chunk followed by a single data chunk.
func Encode(w io.Writer, clip *audio.Clip) error {
	f := clip.Format
	byteRate := uint32(f.SampleRate * f.Channels * bitsPerSample / 8)
	blockAlign := uint16(f.Channels * bitsPerSample / 8)
	dataLen := uint32(len(clip.Data))
	riffSize := uint32(4 + (8 + 16) + (8 + dataLen))

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataLen)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	if _, err := w.Write(clip.Data); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}
	return nil
}

// Decode reads a RIFF/WAVE stream from r and returns its PCM payload.
// Chunks other than fmt and data are skipped. Returns [ErrNotPCM] when the
// fmt chunk declares anything other than uncompressed 16-bit PCM.
func Decode(r io.Reader) (*audio.Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("wav: read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, errors.New("wav: missing RIFF/WAVE signature")
	}

	var (
		format  audio.Format
		haveFmt bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errors.New("wav: no data chunk found")
			}
			return nil, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			if size < 16 {
				return nil, errors.New("wav: fmt chunk too short")
			}
			tag := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if tag != formatPCM || bits != bitsPerSample {
				return nil, fmt.Errorf("%w (format tag %d, %d bits)", ErrNotPCM, tag, bits)
			}
			format.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			if format.SampleRate <= 0 || format.Channels <= 0 {
				return nil, fmt.Errorf("wav: invalid fmt chunk: %d Hz, %d channels",
					format.SampleRate, format.Channels)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, errors.New("wav: data chunk before fmt chunk")
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("wav: read data chunk: %w", err)
			}
			return &audio.Clip{Data: data, Format: format}, nil

		default:
			// Skip unknown chunks (LIST, fact, …). Chunk bodies are
			// word-aligned; odd sizes carry one pad byte.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}
	}
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wav: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes clip to path atomically: the bytes are written to a
// temporary file in the same directory, synced, and renamed into place so a
// crashed run never leaves a truncated WAV behind.
func WriteFile(path string, clip *audio.Clip) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("wav: create output directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("wav: create %q: %w", tmp, err)
	}
	if err := Encode(f, clip); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("wav: sync %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("wav: close %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("wav: rename into place: %w", err)
	}
	return nil
}
