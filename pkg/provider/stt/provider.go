// Package stt defines the Provider interface for speech-to-text backends
// with speaker diarization.
//
// An STT provider wraps a conversation transcription service (e.g., Azure
// Speech) and exposes a uniform event-source interface. The central
// abstraction is [Session]: once started, a session accepts raw PCM audio
// chunks and emits an ordered stream of [Event] values — one
// [EventRecognized] per attributed utterance, then exactly one terminal
// [EventStopped] before the channel closes. Normal completion and
// cancellation both surface as the same terminal event; the distinction, if
// any, is carried in the event's Reason.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// SessionConfig describes the audio format and recognition hints for a new
// transcription session.
type SessionConfig struct {
	// SampleRate is the audio sample rate in Hz (e.g., 16000).
	SampleRate int

	// Channels is the number of audio channels. 1 = mono, which is what
	// diarization-capable services expect.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// Empty lets the provider use its default.
	Language string
}

// Session represents an open transcription session. It is an interface so
// that test code can provide mock implementations without a live service
// connection.
//
// Callers must call Stop when the session is no longer needed. Failing to do
// so may leak goroutines and network connections inside the provider.
type Session interface {
	// SendAudio delivers a chunk of raw 16-bit LE PCM to the provider. The
	// chunk must match the SampleRate and Channels agreed in SessionConfig.
	// Calling SendAudio after the session has stopped returns ErrSessionClosed.
	SendAudio(chunk []byte) error

	// Events returns the session's event stream. Events arrive in service
	// delivery order, which approximates speaking order but may reorder
	// across simultaneous speech. The channel delivers exactly one
	// EventStopped as its final value and is then closed.
	Events() <-chan Event

	// Stop requests termination, flushes pending audio on a best-effort
	// basis, and releases resources. The terminal EventStopped is still
	// delivered on Events. Calling Stop more than once is safe.
	Stop() error
}

// Provider is the abstraction over any diarizing STT backend.
type Provider interface {
	// StartSession opens a new transcription session with the given audio
	// format and recognition configuration. The returned Session is ready to
	// accept audio immediately.
	//
	// Returns an error if the session cannot be established (authentication
	// failure, unsupported configuration, or ctx already cancelled). The
	// caller owns the Session and must call Stop when done.
	StartSession(ctx context.Context, cfg SessionConfig) (Session, error)
}
