// Package conversation models a scripted multi-speaker dialogue and its
// line-oriented markdown form.
//
// The script format is one utterance per non-blank line, "Speaker: text".
// Lines that do not match — including markdown comment lines starting with
// '#' — are skipped silently, so script headers written by the generator fall
// straight through the parser.
package conversation

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Utterance is one attributed span of dialogue. Ordering is significant:
// slice order equals speaking order. Immutable once parsed.
type Utterance struct {
	Speaker string
	Text    string
}

// utteranceRe recognizes an utterance line: an alphabetic speaker token, a
// colon, then non-empty text. The prefix match stops at the first colon, so
// colons inside the utterance text stay with the text.
var utteranceRe = regexp.MustCompile(`^([A-Za-z]+):\s*(.+)$`)

// Parse extracts the ordered utterance sequence from a dialogue script.
// It never fails; a script with no matching lines yields an empty slice,
// which callers must treat as a usage error.
func Parse(r io.Reader) ([]Utterance, error) {
	var utts []Utterance
	sc := bufio.NewScanner(r)
	// Allow long single-utterance lines well beyond the scanner default.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m := utteranceRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		utts = append(utts, Utterance{Speaker: m[1], Text: m[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("conversation: read script: %w", err)
	}
	return utts, nil
}

// Speakers returns the distinct speaker names in first-seen order.
func Speakers(utts []Utterance) []string {
	seen := make(map[string]bool, 4)
	var names []string
	for _, u := range utts {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			names = append(names, u.Speaker)
		}
	}
	return names
}

// Script is a complete generated conversation ready to be written out.
type Script struct {
	// Topic is the human-readable conversation topic for the header line.
	Topic string

	// Duration is the approximate spoken duration in seconds, for the header.
	Duration int

	Utterances []Utterance
}

// Write renders the script in the markdown dialogue format: a comment header
// naming topic and duration, then one blank-line-separated utterance per line.
func (s *Script) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Conversation: %s\n", titleCase(s.Topic))
	fmt.Fprintf(bw, "# Duration: ~%d seconds\n\n", s.Duration)
	for _, u := range s.Utterances {
		fmt.Fprintf(bw, "%s: %s\n\n", u.Speaker, u.Text)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("conversation: write script: %w", err)
	}
	return nil
}

// titleCase uppercases the first letter of each space-separated word.
// Topic keys are plain ASCII phrases, so no Unicode-aware casing is needed.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
