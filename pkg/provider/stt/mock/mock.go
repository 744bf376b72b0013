// Package mock provides test doubles for the stt package interfaces.
//
// Use Provider to verify that the caller starts sessions with the expected
// SessionConfig. Use Session to feed a scripted event sequence and inspect
// which audio chunks were delivered.
//
// Example:
//
//	sess := mock.NewSession(
//	    stt.Event{Kind: stt.EventRecognized, SpeakerID: "Guest-1", Text: "Hi."},
//	)
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.StartSession(ctx, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/confab/pkg/provider/stt"
)

// StartSessionCall records a single invocation of Provider.StartSession.
type StartSessionCall struct {
	// Ctx is the context passed to StartSession.
	Ctx context.Context
	// Cfg is the SessionConfig passed to StartSession.
	Cfg stt.SessionConfig
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the Session returned by StartSession. If nil, StartSession
	// returns a new empty Session that stops immediately.
	Session stt.Session

	// StartSessionErr, if non-nil, is returned as the error from StartSession.
	StartSessionErr error

	// StartSessionCalls records every call to StartSession.
	StartSessionCalls []StartSessionCall
}

// StartSession records the call and returns Session, StartSessionErr.
func (p *Provider) StartSession(ctx context.Context, cfg stt.SessionConfig) (stt.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartSessionCalls = append(p.StartSessionCalls, StartSessionCall{Ctx: ctx, Cfg: cfg})
	if p.StartSessionErr != nil {
		return nil, p.StartSessionErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartSessionCalls = nil
}

// Session is a mock implementation of stt.Session. Its Events channel emits
// the scripted events followed by a terminal EventStopped (appended
// automatically when the script does not end with one), then closes.
type Session struct {
	mu sync.Mutex

	// SendAudioErr, if non-nil, is returned from every SendAudio call.
	SendAudioErr error

	// Sent records every audio chunk delivered via SendAudio.
	Sent [][]byte

	// StopCalls counts Stop invocations.
	StopCalls int

	events chan stt.Event
	once   sync.Once
	script []stt.Event
}

// NewSession creates a mock Session scripted to emit the given events.
func NewSession(script ...stt.Event) *Session {
	if n := len(script); n == 0 || script[n-1].Kind != stt.EventStopped {
		script = append(script, stt.Event{Kind: stt.EventStopped})
	}
	return &Session{
		events: make(chan stt.Event, len(script)),
		script: script,
	}
}

// SendAudio records the chunk and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendAudioErr != nil {
		return s.SendAudioErr
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.Sent = append(s.Sent, c)
	return nil
}

// Events starts delivery of the scripted events on first call and returns
// the event channel.
func (s *Session) Events() <-chan stt.Event {
	s.once.Do(func() {
		go func() {
			for _, ev := range s.script {
				s.events <- ev
			}
			close(s.events)
		}()
	})
	return s.events
}

// Stop records the call. The scripted events are still delivered.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopCalls++
	return nil
}

// Compile-time interface assertions.
var (
	_ stt.Provider = (*Provider)(nil)
	_ stt.Session  = (*Session)(nil)
)
