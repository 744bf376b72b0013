package capture

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/MrWong99/confab/pkg/audio"
)

// micInputArgs returns the ffmpeg input flags for the default capture device
// on the current platform.
func micInputArgs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		return []string{"-f", "dshow", "-i", "audio=default"}
	default:
		return []string{"-f", "alsa", "-i", "default"}
	}
}

// OpenMicrophone starts capturing the default system microphone through an
// ffmpeg child process, emitting raw PCM in the given format. ffmpeg must be
// on PATH. The process is terminated when ctx is cancelled; the returned
// Source streams until then.
func OpenMicrophone(ctx context.Context, format audio.Format) (Source, error) {
	args := append(micInputArgs(),
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-",
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start ffmpeg (is it installed?): %w", err)
	}

	return &readerSource{
		r:      stdout,
		format: format,
		close: func() error {
			// Reap the child; a kill-induced exit error is expected when the
			// context was cancelled mid-capture.
			return cmd.Wait()
		},
	}, nil
}
