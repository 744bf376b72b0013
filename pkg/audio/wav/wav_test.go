package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrWong99/confab/pkg/audio"
)

var mono24k = audio.Format{SampleRate: 24000, Channels: 1}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := &audio.Clip{
		Data:   []byte{0x01, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x10, 0x20},
		Format: mono24k,
	}

	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Format != in.Format {
		t.Fatalf("format = %v, want %v", out.Format, in.Format)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("data = %v, want %v", out.Data, in.Data)
	}
}

func TestEncodeHeaderFields(t *testing.T) {
	in := &audio.Clip{Data: make([]byte, 100), Format: mono24k}

	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b := buf.Bytes()

	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE signature: %q %q", b[0:4], b[8:12])
	}
	if tag := binary.LittleEndian.Uint16(b[20:22]); tag != 1 {
		t.Fatalf("format tag = %d, want 1 (PCM)", tag)
	}
	if sr := binary.LittleEndian.Uint32(b[24:28]); sr != 24000 {
		t.Fatalf("sample rate = %d, want 24000", sr)
	}
	if bits := binary.LittleEndian.Uint16(b[34:36]); bits != 16 {
		t.Fatalf("bits per sample = %d, want 16", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(b[40:44]); dataLen != 100 {
		t.Fatalf("data length = %d, want 100", dataLen)
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	in := &audio.Clip{Data: []byte{1, 2, 3, 4}, Format: mono24k}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Splice a LIST chunk between fmt and data.
	b := buf.Bytes()
	var spliced bytes.Buffer
	spliced.Write(b[:36]) // RIFF header + fmt chunk
	spliced.WriteString("LIST")
	binary.Write(&spliced, binary.LittleEndian, uint32(4))
	spliced.WriteString("INFO")
	spliced.Write(b[36:]) // data chunk

	out, err := Decode(&spliced)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("data = %v, want %v", out.Data, in.Data)
	}
}

func TestDecodeRejectsNonPCM(t *testing.T) {
	in := &audio.Clip{Data: []byte{1, 2}, Format: mono24k}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flip the format tag to 3 (IEEE float).
	b := buf.Bytes()
	binary.LittleEndian.PutUint16(b[20:22], 3)

	_, err := Decode(bytes.NewReader(b))
	if !errors.Is(err, ErrNotPCM) {
		t.Fatalf("Decode error = %v, want ErrNotPCM", err)
	}
}

func TestDecodeRejectsDegenerateFormat(t *testing.T) {
	in := &audio.Clip{Data: []byte{1, 2}, Format: mono24k}

	// A structurally valid file declaring 0 Hz (or 0 channels) must not
	// decode: downstream chunking divides by these values.
	cases := []struct {
		name   string
		offset int
		write  func(b []byte)
	}{
		{"zero sample rate", 24, func(b []byte) { binary.LittleEndian.PutUint32(b[24:28], 0) }},
		{"zero channels", 22, func(b []byte) { binary.LittleEndian.PutUint16(b[22:24], 0) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, in); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			b := buf.Bytes()
			tc.write(b)

			if _, err := Decode(bytes.NewReader(b)); err == nil {
				t.Fatal("Decode accepted a degenerate fmt chunk")
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wav file")))
	if err == nil {
		t.Fatal("Decode accepted garbage input")
	}
}

func TestWriteFileReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "track.wav")

	in := &audio.Clip{Data: []byte{9, 8, 7, 6}, Format: mono24k}
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// No stray tmp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file still present: %v", err)
	}

	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("data = %v, want %v", out.Data, in.Data)
	}
}
