package capture

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/audio/wav"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1}

func writeTestWAV(t *testing.T, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := wav.WriteFile(path, audio.Silence(d, testFormat)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenWAV_RejectsNonWAVExtension(t *testing.T) {
	t.Parallel()

	_, err := OpenWAV("meeting.mp3")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOpenWAV_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := OpenWAV(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestWAVSource_StreamsAllAudioInChunks(t *testing.T) {
	t.Parallel()

	// 250ms of 16kHz mono: two full 100ms chunks plus a 50ms tail.
	src, err := OpenWAV(writeTestWAV(t, 250*time.Millisecond))
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	if got := src.Format(); got != testFormat {
		t.Errorf("format = %v, want %v", got, testFormat)
	}

	var chunks [][]byte
	var total bytes.Buffer
	err = src.Stream(context.Background(), func(chunk []byte) error {
		chunks = append(chunks, chunk)
		total.Write(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	fullChunk := testFormat.SampleRate / 10 * 2
	if len(chunks[0]) != fullChunk || len(chunks[1]) != fullChunk {
		t.Errorf("full chunk sizes = %d, %d, want %d", len(chunks[0]), len(chunks[1]), fullChunk)
	}
	if len(chunks[2]) != fullChunk/2 {
		t.Errorf("tail chunk size = %d, want %d", len(chunks[2]), fullChunk/2)
	}

	wantBytes := 16000 * 2 / 4 // 250ms
	if total.Len() != wantBytes {
		t.Errorf("streamed %d bytes, want %d", total.Len(), wantBytes)
	}
}

func TestWAVSource_SinkErrorStopsStream(t *testing.T) {
	t.Parallel()

	src, err := OpenWAV(writeTestWAV(t, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}

	sinkErr := errors.New("session closed")
	calls := 0
	err = src.Stream(context.Background(), func([]byte) error {
		calls++
		return sinkErr
	})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("err = %v, want sink error", err)
	}
	if calls != 1 {
		t.Errorf("sink calls = %d, want 1", calls)
	}
}

func TestWAVSource_DegenerateFormatFailsFast(t *testing.T) {
	t.Parallel()

	// A zero sample rate would make the chunk size collapse to zero and the
	// stream loop spin forever; it must fail instead.
	src := &WAVSource{clip: &audio.Clip{
		Data:   make([]byte, 100),
		Format: audio.Format{SampleRate: 0, Channels: 1},
	}}
	if err := src.Stream(context.Background(), func([]byte) error { return nil }); err == nil {
		t.Fatal("Stream accepted a zero sample rate")
	}
}

func TestWAVSource_CancelledContext(t *testing.T) {
	t.Parallel()

	src, err := OpenWAV(writeTestWAV(t, 100*time.Millisecond))
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := src.Stream(ctx, func([]byte) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReaderSource_StreamsUntilEOF(t *testing.T) {
	t.Parallel()

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i)
	}
	closed := false
	src := &readerSource{
		r:      bytes.NewReader(data),
		format: testFormat,
		close:  func() error { closed = true; return nil },
	}

	var total bytes.Buffer
	if err := src.Stream(context.Background(), func(chunk []byte) error {
		total.Write(chunk)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !bytes.Equal(total.Bytes(), data) {
		t.Error("streamed data does not match input")
	}
	if !closed {
		t.Error("close hook not invoked")
	}
}
