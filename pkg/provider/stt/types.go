package stt

import (
	"errors"
	"time"
)

// ErrSessionClosed is returned by Session.SendAudio once a session has
// stopped accepting audio.
var ErrSessionClosed = errors.New("stt: session is closed")

// EventKind discriminates the two event types a session emits.
type EventKind int

const (
	// EventRecognized carries one attributed utterance.
	EventRecognized EventKind = iota + 1

	// EventStopped is the terminal event. Exactly one is delivered per
	// session, whether the service completed normally, was cancelled, or
	// failed mid-stream.
	EventStopped
)

// String returns the kind's wire-log name.
func (k EventKind) String() string {
	switch k {
	case EventRecognized:
		return "recognized"
	case EventStopped:
		return "stopped"
	}
	return "unknown"
}

// Event is one recognition event delivered by a [Session].
type Event struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind EventKind

	// SpeakerID is the service's opaque speaker identifier for a recognized
	// utterance (e.g., "Guest-1"). Empty when the service could not
	// attribute the speech.
	SpeakerID string

	// Text is the recognized utterance text. Only set for EventRecognized.
	Text string

	// Offset marks when the utterance started, relative to session start.
	// Zero when the service does not report timing.
	Offset time.Duration

	// Reason carries optional detail for EventStopped (e.g., a service error
	// message). Empty for normal completion.
	Reason string
}
