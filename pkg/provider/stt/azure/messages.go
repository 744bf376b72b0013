package azure

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/confab/pkg/provider/stt"
)

// The Azure Speech websocket protocol frames every message with a block of
// CRLF-separated "Name: value" headers. Text messages separate headers from
// the JSON body with a blank line; binary (audio) messages prefix the header
// block with its big-endian uint16 length.

// message is a parsed service-to-client text message.
type message struct {
	// Path identifies the message type (e.g., "speech.phrase", "turn.end").
	Path string

	// RequestID echoes the X-RequestId header.
	RequestID string

	// Body is the raw JSON payload following the header block.
	Body []byte
}

// buildTextMessage assembles a client-to-service text message for the given
// path and JSON body.
func buildTextMessage(path, requestID string, body []byte) []byte {
	var b bytes.Buffer
	writeHeaders(&b, path, requestID, "application/json; charset=utf-8")
	b.Write(body)
	return b.Bytes()
}

// buildAudioFrame assembles a binary audio message. A nil or empty chunk
// produces the zero-length end-of-audio frame.
func buildAudioFrame(requestID string, chunk []byte) []byte {
	var hdr bytes.Buffer
	writeHeaders(&hdr, "audio", requestID, "audio/x-wav")

	frame := make([]byte, 2, 2+hdr.Len()+len(chunk))
	binary.BigEndian.PutUint16(frame[:2], uint16(hdr.Len()))
	frame = append(frame, hdr.Bytes()...)
	frame = append(frame, chunk...)
	return frame
}

// writeHeaders emits the protocol header block, including the trailing blank
// line that separates headers from the payload.
func writeHeaders(b *bytes.Buffer, path, requestID, contentType string) {
	fmt.Fprintf(b, "Path: %s\r\n", path)
	fmt.Fprintf(b, "X-RequestId: %s\r\n", requestID)
	fmt.Fprintf(b, "X-Timestamp: %s\r\n", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
}

// parseMessage splits a service text message into headers and body.
func parseMessage(data []byte) (message, error) {
	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		return message{}, errors.New("azure stt: message has no header terminator")
	}

	var msg message
	msg.Body = data[headerEnd+4:]
	for _, line := range bytes.Split(data[:headerEnd], []byte("\r\n")) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			continue
		}
		switch string(bytes.TrimSpace(name)) {
		case "Path":
			msg.Path = string(bytes.TrimSpace(value))
		case "X-RequestId":
			msg.RequestID = string(bytes.TrimSpace(value))
		}
	}
	if msg.Path == "" {
		return message{}, errors.New("azure stt: message has no Path header")
	}
	return msg, nil
}

// phraseBody is the JSON payload of a speech.phrase message in simple format
// with diarization enabled.
type phraseBody struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	SpeakerID         string `json:"SpeakerId"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// phraseToEvent converts a speech.phrase body into a recognition event.
// Non-success phrases (silence, no-match) are dropped; the boolean reports
// whether an event was produced.
func phraseToEvent(body []byte) (stt.Event, bool) {
	var p phraseBody
	if err := json.Unmarshal(body, &p); err != nil {
		return stt.Event{}, false
	}
	if p.RecognitionStatus != "Success" || p.DisplayText == "" {
		return stt.Event{}, false
	}
	return stt.Event{
		Kind:      stt.EventRecognized,
		SpeakerID: p.SpeakerID,
		Text:      p.DisplayText,
		Offset:    durationFromTicks(p.Offset),
	}, true
}

// speechConfigJSON builds the speech.config handshake payload describing the
// client and the PCM input stream.
func speechConfigJSON(cfg stt.SessionConfig) []byte {
	type audioFormat struct {
		SamplesPerSecond int    `json:"samplerate"`
		BitsPerSample    int    `json:"bitspersample"`
		ChannelCount     int    `json:"channelcount"`
		Encoding         string `json:"encoding"`
	}
	payload := map[string]any{
		"context": map[string]any{
			"system": map[string]string{
				"name":    "confab",
				"version": "1.0",
			},
			"audio": map[string]any{
				"source": audioFormat{
					SamplesPerSecond: cfg.SampleRate,
					BitsPerSample:    16,
					ChannelCount:     cfg.Channels,
					Encoding:         "pcm",
				},
			},
		},
	}
	b, _ := json.Marshal(payload) // static shape, cannot fail
	return b
}
