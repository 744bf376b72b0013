package azure

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/confab/pkg/provider/stt"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key", "westeurope")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.SessionConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	if !strings.Contains(u.Host, "westeurope.stt.speech.microsoft.com") {
		t.Fatalf("host = %q, want region-scoped endpoint", u.Host)
	}
	q := u.Query()
	assertEqual(t, "language", "en-US", q.Get("language"))
	assertEqual(t, "format", "simple", q.Get("format"))
	assertEqual(t, "diarizationEnabled", "true", q.Get("diarizationEnabled"))
	assertEqual(t, "sampleRate", "16000", q.Get("sampleRate"))
}

func TestBuildURL_LanguageOverriddenByCfg(t *testing.T) {
	p, err := New("key", "westeurope", WithLanguage("en-GB"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(stt.SessionConfig{Language: "de-DE"})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	u, _ := url.Parse(rawURL)
	assertEqual(t, "language", "de-DE", u.Query().Get("language"))
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "region"); err == nil {
		t.Fatal("New accepted empty key")
	}
	if _, err := New("key", ""); err == nil {
		t.Fatal("New accepted empty region")
	}
}

// ---- wire framing tests ----

func TestTextMessageRoundTrip(t *testing.T) {
	raw := buildTextMessage("speech.config", "req-1", []byte(`{"a":1}`))

	msg, err := parseMessage(raw)
	if err != nil {
		t.Fatalf("parseMessage: %v", err)
	}
	assertEqual(t, "path", "speech.config", msg.Path)
	assertEqual(t, "request id", "req-1", msg.RequestID)
	assertEqual(t, "body", `{"a":1}`, string(msg.Body))
}

func TestAudioFrameLayout(t *testing.T) {
	chunk := []byte{1, 2, 3, 4}
	frame := buildAudioFrame("req-2", chunk)

	hdrLen := int(binary.BigEndian.Uint16(frame[:2]))
	header := string(frame[2 : 2+hdrLen])
	payload := frame[2+hdrLen:]

	if !strings.Contains(header, "Path: audio\r\n") {
		t.Fatalf("header missing audio path: %q", header)
	}
	if !strings.Contains(header, "X-RequestId: req-2\r\n") {
		t.Fatalf("header missing request id: %q", header)
	}
	if !bytes.Equal(payload, chunk) {
		t.Fatalf("payload = %v, want %v", payload, chunk)
	}
}

func TestAudioFrameEndOfAudio(t *testing.T) {
	frame := buildAudioFrame("req-3", nil)
	hdrLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) != 2+hdrLen {
		t.Fatalf("end-of-audio frame carries %d payload bytes, want 0", len(frame)-2-hdrLen)
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	if _, err := parseMessage([]byte("no headers here")); err == nil {
		t.Fatal("parseMessage accepted a frame without header terminator")
	}
	if _, err := parseMessage([]byte("X-RequestId: x\r\n\r\n{}")); err == nil {
		t.Fatal("parseMessage accepted a frame without Path header")
	}
}

// ---- phrase parsing tests ----

func TestPhraseToEvent_Success(t *testing.T) {
	body := []byte(`{
		"RecognitionStatus": "Success",
		"DisplayText": "Hello there.",
		"SpeakerId": "Guest-1",
		"Offset": 10000000,
		"Duration": 5000000
	}`)

	ev, ok := phraseToEvent(body)
	if !ok {
		t.Fatal("phraseToEvent dropped a success phrase")
	}
	assertEqual(t, "kind", stt.EventRecognized.String(), ev.Kind.String())
	assertEqual(t, "speaker", "Guest-1", ev.SpeakerID)
	assertEqual(t, "text", "Hello there.", ev.Text)
	if ev.Offset != time.Second {
		t.Fatalf("offset = %v, want 1s", ev.Offset)
	}
}

func TestPhraseToEvent_DropsNonSuccess(t *testing.T) {
	cases := []string{
		`{"RecognitionStatus": "InitialSilenceTimeout"}`,
		`{"RecognitionStatus": "NoMatch", "DisplayText": ""}`,
		`{"RecognitionStatus": "Success", "DisplayText": ""}`,
		`not json`,
	}
	for _, body := range cases {
		if _, ok := phraseToEvent([]byte(body)); ok {
			t.Fatalf("phraseToEvent produced an event for %q", body)
		}
	}
}

// ---- session lifecycle tests ----

// newFaultyServer starts a websocket server that accepts the connection,
// reads the speech.config handshake, and then drops the session with an
// error close. Returns the ws:// endpoint.
func newFaultyServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = c.Read(r.Context())
		c.Close(websocket.StatusInternalError, "service fault")
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSession_SendAudioUnblocksAfterConnectionFailure(t *testing.T) {
	p, err := New("test-key", "westeurope", WithEndpoint(newFaultyServer(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := p.StartSession(ctx, stt.SessionConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// Feed audio continuously, the way a live capture source does. Once the
	// service drops the connection the session must reject further audio
	// rather than leaving the feeder blocked on a dead session.
	feedErr := make(chan error, 1)
	go func() {
		chunk := make([]byte, 3200)
		for {
			if err := sess.SendAudio(chunk); err != nil {
				feedErr <- err
				return
			}
		}
	}()

	var last stt.Event
	for ev := range sess.Events() {
		last = ev
	}
	if last.Kind != stt.EventStopped {
		t.Errorf("final event kind = %v, want stopped", last.Kind)
	}
	if last.Reason == "" {
		t.Error("terminal event carries no failure reason")
	}

	select {
	case err := <-feedErr:
		if !errors.Is(err, stt.ErrSessionClosed) {
			t.Fatalf("SendAudio err = %v, want ErrSessionClosed", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("SendAudio still blocked after the session ended")
	}
}

func TestSession_StopAfterConnectionFailureIsSafe(t *testing.T) {
	p, err := New("test-key", "westeurope", WithEndpoint(newFaultyServer(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := p.StartSession(ctx, stt.SessionConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	for range sess.Events() {
	}
	// The teardown path already closed the session; Stop must still be safe.
	if err := sess.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

// ---- helpers ----

func assertEqual(t *testing.T, name, want, got string) {
	t.Helper()
	if want != got {
		t.Fatalf("%s = %q, want %q", name, got, want)
	}
}
