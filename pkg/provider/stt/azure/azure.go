// Package azure provides an Azure Speech-backed STT provider using the
// Speech service's websocket conversation-transcription protocol. It
// implements the stt.Provider interface with speaker diarization enabled.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/MrWong99/confab/pkg/provider/stt"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	endpointFmt     = "wss://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	defaultLanguage = "en-US"

	// ticksPerSecond is the unit of the service's Offset/Duration fields
	// (100-nanosecond ticks).
	ticksPerSecond = 10_000_000
)

// Option is a functional option for configuring the Azure STT Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 recognition language (e.g., "en-US", "de-DE").
func WithLanguage(language string) Option {
	return func(p *Provider) {
		p.language = language
	}
}

// WithEndpoint overrides the regional websocket endpoint. Intended for tests
// and sovereign-cloud deployments.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// Provider implements stt.Provider backed by the Azure Speech websocket API.
type Provider struct {
	key      string
	endpoint string
	language string
}

// New creates a new Azure STT Provider for the given subscription key and
// service region. Both must be non-empty.
func New(key, region string, opts ...Option) (*Provider, error) {
	if key == "" {
		return nil, errors.New("azure stt: subscription key must not be empty")
	}
	if region == "" {
		return nil, errors.New("azure stt: region must not be empty")
	}
	p := &Provider{
		key:      key,
		endpoint: fmt.Sprintf(endpointFmt, region),
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StartSession dials the service, performs the speech.config handshake, and
// returns a live transcription session.
func (p *Provider) StartSession(ctx context.Context, cfg stt.SessionConfig) (stt.Session, error) {
	wsURL, err := p.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("azure stt: build URL: %w", err)
	}

	connectionID := uuid.NewString()
	headers := http.Header{}
	headers.Set("Ocp-Apim-Subscription-Key", p.key)
	headers.Set("X-ConnectionId", connectionID)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("azure stt: dial: %w", err)
	}
	// Audio chunks can be large; raise the limit above the library default.
	conn.SetReadLimit(1 << 20)

	sess := &session{
		conn:      conn,
		requestID: uuid.NewString(),
		events:    make(chan stt.Event, 64),
		audio:     make(chan []byte, 256),
		done:      make(chan struct{}),
	}

	if err := sess.sendSpeechConfig(ctx, cfg); err != nil {
		conn.Close(websocket.StatusInternalError, "handshake failed")
		return nil, fmt.Errorf("azure stt: speech.config: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	sess.group = g
	g.Go(func() error { return sess.readLoop(gctx) })
	g.Go(func() error { return sess.writeLoop(gctx) })
	go sess.finish()

	return sess, nil
}

// buildURL constructs the websocket endpoint URL for the given config.
// Diarization is always requested — attributing utterances to speakers is
// the whole point of a conversation session.
func (p *Provider) buildURL(cfg stt.SessionConfig) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	q := u.Query()
	q.Set("language", lang)
	q.Set("format", "simple")
	q.Set("diarizationEnabled", "true")
	if cfg.SampleRate > 0 {
		q.Set("sampleRate", strconv.Itoa(cfg.SampleRate))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- session ----

// session is a live Azure transcription session. It implements stt.Session.
type session struct {
	conn      *websocket.Conn
	requestID string

	events chan stt.Event
	audio  chan []byte

	group *errgroup.Group
	done  chan struct{}

	stopOnce sync.Once
	emitOnce sync.Once
}

// SendAudio queues a PCM chunk for delivery to the service.
func (s *session) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return stt.ErrSessionClosed
	default:
	}
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		return stt.ErrSessionClosed
	}
}

// Events returns the session's event stream.
func (s *session) Events() <-chan stt.Event { return s.events }

// Stop signals end of audio and terminates the session. The terminal
// EventStopped is still delivered before the events channel closes.
func (s *session) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// finish waits for both loops, emits the terminal event if the read loop
// didn't already, and closes the connection and the events channel.
func (s *session) finish() {
	err := s.group.Wait()
	// The loops can die without Stop ever being called (dropped connection,
	// service fault). Mark the session closed first so feeders blocked in
	// SendAudio get ErrSessionClosed instead of waiting on a dead session.
	s.stopOnce.Do(func() { close(s.done) })
	reason := ""
	if err != nil && !errors.Is(err, context.Canceled) {
		reason = err.Error()
	}
	s.emitStopped(reason)
	close(s.events)
	s.conn.Close(websocket.StatusNormalClosure, "session closed")
}

// emitStopped delivers the single terminal event. Safe to call from both the
// read loop (turn.end) and finish (error paths); only the first wins.
func (s *session) emitStopped(reason string) {
	s.emitOnce.Do(func() {
		s.events <- stt.Event{Kind: stt.EventStopped, Reason: reason}
	})
}

// sendSpeechConfig performs the speech.config handshake on a fresh connection.
func (s *session) sendSpeechConfig(ctx context.Context, cfg stt.SessionConfig) error {
	msg := buildTextMessage("speech.config", s.requestID, speechConfigJSON(cfg))
	return s.conn.Write(ctx, websocket.MessageText, msg)
}

// writeLoop frames queued PCM chunks as binary audio messages. When the
// session is stopped it sends the zero-length end-of-audio frame so the
// service flushes pending recognition and eventually answers with turn.end.
func (s *session) writeLoop(ctx context.Context) error {
	for {
		select {
		case chunk := <-s.audio:
			frame := buildAudioFrame(s.requestID, chunk)
			if err := s.conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
		case <-s.done:
			// Drain whatever is still queued, then signal end of audio.
			for {
				select {
				case chunk := <-s.audio:
					frame := buildAudioFrame(s.requestID, chunk)
					if err := s.conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
						return fmt.Errorf("write audio: %w", err)
					}
				default:
					eoa := buildAudioFrame(s.requestID, nil)
					if err := s.conn.Write(ctx, websocket.MessageBinary, eoa); err != nil {
						return fmt.Errorf("write end-of-audio: %w", err)
					}
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readLoop receives service messages and dispatches recognition events.
// It returns nil on turn.end (normal completion) and an error otherwise.
func (s *session) readLoop(ctx context.Context) error {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				// Stop raced with the service closing the socket; treat as
				// normal completion.
				return nil
			default:
			}
			return fmt.Errorf("read: %w", err)
		}

		msg, err := parseMessage(data)
		if err != nil {
			// Malformed frames are skipped rather than fatal; the service
			// occasionally interleaves telemetry messages.
			continue
		}

		switch msg.Path {
		case "speech.phrase":
			ev, ok := phraseToEvent(msg.Body)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "turn.end":
			s.emitStopped("")
			// Unblock the write loop if the caller never called Stop —
			// the service ends the turn on its own for file input.
			s.stopOnce.Do(func() { close(s.done) })
			return nil
		}
	}
}

// durationFromTicks converts the service's 100ns tick counts.
func durationFromTicks(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / ticksPerSecond
}

// Ensure interfaces are implemented at compile time.
var (
	_ stt.Provider = (*Provider)(nil)
	_ stt.Session  = (*session)(nil)
)
