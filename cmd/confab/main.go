// Command confab transcribes multi-speaker audio with speaker diarization
// and synthesizes markdown dialogue scripts into combined audio, backed by
// Azure Speech. It can also fabricate synthetic conversation scripts from
// canned topics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrWong99/confab/internal/capture"
	"github.com/MrWong99/confab/internal/config"
	"github.com/MrWong99/confab/internal/conversation"
	"github.com/MrWong99/confab/internal/generator"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/synth"
	"github.com/MrWong99/confab/internal/transcribe"
	"github.com/MrWong99/confab/pkg/audio"
	azurestt "github.com/MrWong99/confab/pkg/provider/stt/azure"
	azuretts "github.com/MrWong99/confab/pkg/provider/tts/azure"
)

// micFormat is the capture format for microphone transcription: 16kHz mono,
// what the recognition service expects.
var micFormat = audio.Format{SampleRate: 16000, Channels: 1}

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	mode := flag.String("mode", "", "operation mode: microphone | file | random | generate (required)")
	input := flag.String("input", "", "input file path (for file/generate modes)")
	output := flag.String("output", "", "output file path")
	duration := flag.Int("duration", 60, "duration in seconds for random conversation")
	speakers := flag.Int("speakers", 3, "number of speakers for random conversation")
	topic := flag.String("topic", "", "topic for random conversation")
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	metricsAddr := flag.String("metrics-addr", "", "listen address for the Prometheus /metrics endpoint (disabled when empty)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	switch *mode {
	case "microphone", "file", "random", "generate":
	case "":
		fmt.Fprintln(os.Stderr, "confab: -mode is required (microphone | file | random | generate)")
		flag.Usage()
		return 2
	default:
		fmt.Fprintf(os.Stderr, "confab: unknown mode %q (microphone | file | random | generate)\n", *mode)
		return 2
	}
	if (*mode == "file" || *mode == "generate") && *input == "" {
		fmt.Fprintf(os.Stderr, "confab: -input is required for %s mode\n", *mode)
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	// The config file is optional unless the user pointed at one explicitly.
	configExplicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configExplicit = true
		}
	})
	cfg, err := config.Load(*configPath, !configExplicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "confab: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := cfg.LogLevel
	if *verbose {
		level = config.LogDebug
	}
	slog.SetDefault(newLogger(level))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics endpoint (optional) ───────────────────────────────────────────
	if *metricsAddr != "" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "confab"})
		if err != nil {
			slog.Error("failed to initialise metrics", "err", err)
			return 1
		}
		defer shutdown(context.Background()) //nolint:errcheck // best-effort flush
		go func() {
			if err := observe.ServeMetrics(ctx, *metricsAddr); err != nil {
				slog.Warn("metrics server error", "err", err)
			}
		}()
	}

	// ── Credentials ───────────────────────────────────────────────────────────
	// Every mode that talks to the speech service needs them before any call.
	var creds config.Credentials
	if *mode != "random" {
		creds, err = config.CredentialsFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "confab: %v\n", err)
			fmt.Fprintf(os.Stderr, "Please set %s and %s environment variables.\n",
				config.EnvSpeechKey, config.EnvSpeechRegion)
			return 1
		}
	}

	// ── Mode dispatch ─────────────────────────────────────────────────────────
	switch *mode {
	case "random":
		err = runRandom(*output, *duration, *speakers, *topic)
	case "generate":
		err = runGenerate(ctx, cfg, creds, *input, *output)
	case "file":
		err = runTranscribe(ctx, cfg, creds, fileSource(*input), *output)
	case "microphone":
		err = runTranscribe(ctx, cfg, creds, micSource(), *output)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "confab: %v\n", err)
		if *verbose {
			slog.Debug("run failed", "mode", *mode, "err", err)
		}
		return 1
	}
	return 0
}

// runRandom fabricates a synthetic conversation script and writes it out.
func runRandom(output string, duration, speakers int, topic string) error {
	if output == "" {
		output = "conversation.md"
	}

	slog.Info("generating conversation", "duration", duration, "speakers", speakers, "topic", topic)
	script, err := generator.Generate(generator.Options{
		DurationSeconds: duration,
		Speakers:        speakers,
		Topic:           topic,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create script file: %w", err)
	}
	if err := script.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write script file: %w", err)
	}

	slog.Info("conversation saved", "topic", script.Topic, "utterances", len(script.Utterances), "output", output)
	return nil
}

// runGenerate converts a markdown dialogue script into one combined WAV.
func runGenerate(ctx context.Context, cfg *config.Config, creds config.Credentials, input, output string) error {
	if output == "" {
		output = "output.wav"
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	utts, err := conversation.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	var opts []azuretts.Option
	if cfg.Synthesis.OutputFormat != "" {
		opts = append(opts, azuretts.WithOutputFormat(cfg.Synthesis.OutputFormat))
	}
	provider, err := azuretts.New(creds.Key, creds.Region, opts...)
	if err != nil {
		return err
	}

	overrides := make(map[string]string, len(cfg.Speakers))
	for name, sc := range cfg.Speakers {
		overrides[name] = sc.Voice
	}
	voices := synth.NewVoiceMap(overrides, cfg.Synthesis.DefaultVoices)

	pipe := synth.New(provider, synth.WithFailurePolicy(cfg.Synthesis.OnError))
	res, err := pipe.Run(ctx, utts, voices, output)
	if err != nil {
		return err
	}

	fmt.Printf("Audio saved to: %s (%d segments, %v)\n", output, res.Synthesized, res.TrackDuration)
	return nil
}

// sourceFn defers source construction so flag validation and credential
// checks run before any device or file is touched.
type sourceFn func(ctx context.Context) (capture.Source, error)

func fileSource(path string) sourceFn {
	return func(context.Context) (capture.Source, error) {
		return capture.OpenWAV(path)
	}
}

func micSource() sourceFn {
	return func(ctx context.Context) (capture.Source, error) {
		fmt.Println("Starting microphone transcription... Press Ctrl+C to stop")
		return capture.OpenMicrophone(ctx, micFormat)
	}
}

// runTranscribe streams a source through a diarizing recognition session and
// persists the transcript when an output path was requested. An interrupt
// still persists whatever was recognized up to that point.
func runTranscribe(ctx context.Context, cfg *config.Config, creds config.Credentials, open sourceFn, output string) error {
	source, err := open(ctx)
	if err != nil {
		return err
	}

	provider, err := azurestt.New(creds.Key, creds.Region)
	if err != nil {
		return err
	}

	pipe := transcribe.New(provider, transcribe.WithEcho(os.Stdout))
	transcript, runErr := pipe.Run(ctx, source, cfg.Transcription.Language)

	if output != "" && transcript != nil && transcript.Len() > 0 {
		if err := transcript.Save(output); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Printf("Transcript saved to: %s\n", output)
	}
	return runErr
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
