// Package transcribe turns a diarized recognition session into a labeled,
// ordered transcript and persists it as JSON or timestamped markdown.
package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one attributed transcript line. Entries are appended in event
// arrival order, which approximates chronological speaking order.
type Entry struct {
	// Timestamp is the wall-clock time the utterance was recognized.
	Timestamp time.Time `json:"timestamp"`

	// Speaker is the friendly label ("Speaker 1", "Speaker 2", ...).
	Speaker string `json:"speaker"`

	// Text is the recognized utterance.
	Text string `json:"text"`

	// RawSpeakerID is the service's opaque speaker identifier the label was
	// derived from. Not serialized.
	RawSpeakerID string `json:"-"`
}

// Transcript accumulates labeled entries for one session. The raw speaker id
// → friendly label mapping is assigned on first sighting and fixed for the
// session's lifetime.
//
// Not safe for concurrent use; the pipeline appends exclusively from its
// event-consuming goroutine.
type Transcript struct {
	entries []Entry
	labels  map[string]string
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{labels: make(map[string]string)}
}

// Add appends an utterance, assigning a friendly label to rawSpeakerID on
// first sighting. An empty rawSpeakerID is treated as the distinct pseudo
// speaker "Unknown". Returns the appended entry.
func (t *Transcript) Add(ts time.Time, rawSpeakerID, text string) Entry {
	if rawSpeakerID == "" {
		rawSpeakerID = "Unknown"
	}
	label, ok := t.labels[rawSpeakerID]
	if !ok {
		label = fmt.Sprintf("Speaker %d", len(t.labels)+1)
		t.labels[rawSpeakerID] = label
	}
	e := Entry{Timestamp: ts, Speaker: label, Text: text, RawSpeakerID: rawSpeakerID}
	t.entries = append(t.entries, e)
	return e
}

// Entries returns the accumulated entries in arrival order. The returned
// slice is the transcript's backing store; callers must not mutate it.
func (t *Transcript) Entries() []Entry { return t.entries }

// Len returns the number of entries.
func (t *Transcript) Len() int { return len(t.entries) }

// Save serializes the transcript to path. A ".json" extension selects a
// structured record list; anything else produces timestamped markdown.
func (t *Transcript) Save(path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return t.saveJSON(path)
	}
	return t.saveMarkdown(path)
}

func (t *Transcript) saveJSON(path string) error {
	// Marshal a non-nil slice so an empty transcript serializes as [].
	entries := t.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("transcribe: marshal transcript: %w", err)
	}
	return writeFileAtomic(path, data)
}

func (t *Transcript) saveMarkdown(path string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Conversation Transcript\n")
	fmt.Fprintf(&buf, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, e := range t.entries {
		fmt.Fprintf(&buf, "[%s] %s: %s\n\n", e.Timestamp.Format("15:04:05"), e.Speaker, e.Text)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes data to a temporary file in the target directory,
// syncs it, and renames it into place, so an interrupt mid-save never leaves
// a truncated transcript behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("transcribe: create %q: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("transcribe: write %q: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("transcribe: sync %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("transcribe: close %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("transcribe: rename into place: %w", err)
	}
	return nil
}
