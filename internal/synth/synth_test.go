package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/conversation"
	"github.com/MrWong99/confab/pkg/audio"
	"github.com/MrWong99/confab/pkg/audio/wav"
	"github.com/MrWong99/confab/pkg/provider/tts/mock"
)

var testFormat = audio.Format{SampleRate: 24000, Channels: 1}

func testUtterances(n int) []conversation.Utterance {
	speakers := []string{"Alice", "Bob", "Charlie"}
	utts := make([]conversation.Utterance, n)
	for i := range utts {
		utts[i] = conversation.Utterance{
			Speaker: speakers[i%len(speakers)],
			Text:    "Line number " + string(rune('a'+i)),
		}
	}
	return utts
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()

	p := mock.NewProvider(testFormat)
	p.ClipDuration = 100 * time.Millisecond
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p, WithGap(300*time.Millisecond))
	res, err := pipe.Run(context.Background(), testUtterances(3), NewVoiceMap(nil, nil), out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Synthesized != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 3 synthesized, 0 skipped", res)
	}

	// 3 clips of 100ms separated by 2 gaps of 300ms.
	clip, err := wav.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := 3*100*time.Millisecond + 2*300*time.Millisecond
	if got := clip.Duration(); got != want {
		t.Errorf("track duration = %v, want %v", got, want)
	}
	if res.TrackDuration != want {
		t.Errorf("result duration = %v, want %v", res.TrackDuration, want)
	}
}

func TestRun_OneFailureSkipsClipAndGap(t *testing.T) {
	t.Parallel()

	p := mock.NewProvider(testFormat)
	p.ClipDuration = 100 * time.Millisecond
	p.FailOn[1] = errors.New("throttled")
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p, WithGap(300*time.Millisecond))
	res, err := pipe.Run(context.Background(), testUtterances(3), NewVoiceMap(nil, nil), out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Synthesized != 2 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 2 synthesized, 1 skipped", res)
	}

	// The failed utterance contributes neither a segment nor a gap:
	// 2 clips, 1 gap.
	clip, err := wav.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := 2*100*time.Millisecond + 300*time.Millisecond
	if got := clip.Duration(); got != want {
		t.Errorf("track duration = %v, want %v", got, want)
	}
}

func TestRun_FirstFailureMovesGapBoundary(t *testing.T) {
	t.Parallel()

	p := mock.NewProvider(testFormat)
	p.ClipDuration = 100 * time.Millisecond
	p.FailOn[0] = errors.New("boom")
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p, WithGap(300*time.Millisecond))
	if _, err := pipe.Run(context.Background(), testUtterances(3), NewVoiceMap(nil, nil), out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// First successful clip gets no leading gap even though it was not
	// utterance zero.
	clip, err := wav.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := 2*100*time.Millisecond + 300*time.Millisecond
	if got := clip.Duration(); got != want {
		t.Errorf("track duration = %v, want %v", got, want)
	}
}

func TestRun_AllFail(t *testing.T) {
	t.Parallel()

	p := mock.NewProvider(testFormat)
	p.FailOn[0] = errors.New("boom")
	p.FailOn[1] = errors.New("boom")
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p)
	_, err := pipe.Run(context.Background(), testUtterances(2), NewVoiceMap(nil, nil), out)
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file written despite zero segments")
	}
}

func TestRun_AbortPolicy(t *testing.T) {
	t.Parallel()

	cause := errors.New("throttled")
	p := mock.NewProvider(testFormat)
	p.FailOn[1] = cause
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p, WithFailurePolicy(config.FailureAbort))
	_, err := pipe.Run(context.Background(), testUtterances(3), NewVoiceMap(nil, nil), out)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
	if len(p.Calls) != 2 {
		t.Errorf("synthesize calls = %d, want 2 (no call after the failure)", len(p.Calls))
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file written despite abort")
	}
}

func TestRun_NoUtterances(t *testing.T) {
	t.Parallel()

	pipe := New(mock.NewProvider(testFormat))
	_, err := pipe.Run(context.Background(), nil, NewVoiceMap(nil, nil), "unused.wav")
	if !errors.Is(err, ErrNoUtterances) {
		t.Fatalf("err = %v, want ErrNoUtterances", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipe := New(mock.NewProvider(testFormat))
	_, err := pipe.Run(ctx, testUtterances(2), NewVoiceMap(nil, nil), "unused.wav")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRun_EndToEndScenario(t *testing.T) {
	t.Parallel()

	utts, err := conversation.Parse(strings.NewReader("Alice: Hello there.\n\nBob: Hi Alice!\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []conversation.Utterance{
		{Speaker: "Alice", Text: "Hello there."},
		{Speaker: "Bob", Text: "Hi Alice!"},
	}
	if len(utts) != 2 || utts[0] != want[0] || utts[1] != want[1] {
		t.Fatalf("parsed %+v, want %+v", utts, want)
	}

	p := mock.NewProvider(testFormat)
	out := filepath.Join(t.TempDir(), "out.wav")

	pipe := New(p)
	if _, err := pipe.Run(context.Background(), utts, NewVoiceMap(nil, []string{"V1", "V2"}), out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(p.Calls) != 2 {
		t.Fatalf("synthesize calls = %d, want 2", len(p.Calls))
	}
	if p.Calls[0].Voice.Name != "V1" {
		t.Errorf("Alice voice = %q, want V1", p.Calls[0].Voice.Name)
	}
	if p.Calls[1].Voice.Name != "V2" {
		t.Errorf("Bob voice = %q, want V2", p.Calls[1].Voice.Name)
	}
}
