// Package generator fabricates plausible multi-speaker dialogue scripts from
// canned topic templates. It is pure content generation: the only contracts
// are output shape (valid script lines, requested speaker count) and a word
// budget derived from the requested duration at an average speaking rate.
package generator

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/confab/internal/conversation"
)

// wordsPerMinute is the average speaking rate used to turn a requested
// duration into a target word count.
const wordsPerMinute = 150

// topicMatchThreshold is the minimum Jaro-Winkler similarity for a requested
// topic to resolve to a known one instead of falling back to a random pick.
const topicMatchThreshold = 0.85

// transitionChance is the probability that a reused line gets a transition
// phrase prefix instead of a verbatim repeat.
const transitionChance = 0.3

// Options controls a single generation run.
type Options struct {
	// DurationSeconds is the approximate spoken duration the script should
	// fill at the average speaking rate. Must be positive.
	DurationSeconds int

	// Speakers is how many distinct speaker names to sample from the name
	// pool. Must be at least 1; values beyond the pool size are clamped.
	Speakers int

	// Topic optionally names the conversation topic. Close misspellings
	// resolve to the nearest known topic; anything else falls back to a
	// random pick.
	Topic string

	// Rand is the randomness source. When nil a globally-seeded source is
	// used; tests pass a fixed-seed source for reproducible output.
	Rand *rand.Rand
}

// Generate produces a synthetic conversation script per opts. Utterances are
// drawn from the selected topic's shuffled line pool, attributed to randomly
// chosen speakers, until the word budget is met.
func Generate(opts Options) (*conversation.Script, error) {
	if opts.DurationSeconds <= 0 {
		return nil, fmt.Errorf("generator: duration must be positive, got %d", opts.DurationSeconds)
	}
	if opts.Speakers < 1 {
		return nil, fmt.Errorf("generator: speaker count must be at least 1, got %d", opts.Speakers)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	topic := resolveTopic(opts.Topic, rng)
	speakers := sampleSpeakers(opts.Speakers, rng)
	targetWords := opts.DurationSeconds * wordsPerMinute / 60

	pool := make([]string, len(topics[topic]))
	copy(pool, topics[topic])
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var utts []conversation.Utterance
	wordCount := 0
	next := 0

	for wordCount < targetWords {
		// Walk the sampled speakers once before going random so every
		// requested speaker appears in any script long enough to hold them.
		var speaker string
		if len(utts) < len(speakers) {
			speaker = speakers[len(utts)]
		} else {
			speaker = speakers[rng.Intn(len(speakers))]
		}

		var text string
		if next < len(pool) {
			text = pool[next]
			next++
		} else if rng.Float64() < transitionChance && len(utts) > 0 {
			base := pool[rng.Intn(len(pool))]
			text = transitions[rng.Intn(len(transitions))] + " " + lowerFirst(base)
		} else {
			text = pool[rng.Intn(len(pool))]
		}

		utts = append(utts, conversation.Utterance{Speaker: speaker, Text: text})
		wordCount += len(strings.Fields(text))
	}

	return &conversation.Script{
		Topic:      topic,
		Duration:   opts.DurationSeconds,
		Utterances: utts,
	}, nil
}

// Topics returns the known topic keys, for help text and error messages.
// Order is not stable.
func Topics() []string {
	keys := make([]string, 0, len(topics))
	for k := range topics {
		keys = append(keys, k)
	}
	return keys
}

// resolveTopic picks the topic for a run: an exact key match wins, then the
// fuzzily closest key above the similarity threshold, then a uniform random
// pick. The fuzzy step keeps "-topic debuging" working without a lookup
// table of misspellings.
func resolveTopic(requested string, rng *rand.Rand) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if _, ok := topics[requested]; ok {
		return requested
	}

	if requested != "" {
		best, bestScore := "", 0.0
		for key := range topics {
			if s := matchr.JaroWinkler(requested, key, false); s > bestScore {
				best, bestScore = key, s
			}
		}
		if bestScore >= topicMatchThreshold {
			return best
		}
	}

	keys := Topics()
	return keys[rng.Intn(len(keys))]
}

// sampleSpeakers draws n distinct names from the pool, clamping n to the
// pool size.
func sampleSpeakers(n int, rng *rand.Rand) []string {
	if n > len(speakerNames) {
		n = len(speakerNames)
	}
	perm := rng.Perm(len(speakerNames))
	names := make([]string, n)
	for i := range names {
		names[i] = speakerNames[perm[i]]
	}
	return names
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
