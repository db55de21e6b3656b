// Package composer builds templated fallback replies for queries the
// knowledge base cannot answer.
package composer

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Canned replies for recognized conversational phrases.
const (
	greetingReply = "Hello! Ask me anything about the ward, or type a department code like 'icu' to browse its entries."
	thanksReply   = "You're welcome! Glad I could help."
	helpReply     = "I answer questions from the nursing knowledge base. Type a department code (e.g. 'icu') to list its entries, or just describe what you need, like 'how do I set up cvvh'."
)

// Phrase rules are checked in order against the raw input; the matching is
// literal substring, no case folding.
var (
	greetingPhrases = []string{"hello", "good morning", "good afternoon", "hey"}
	thanksPhrases   = []string{"thank", "thanks", "cheers"}
	helpPhrases     = []string{"help", "what can you do", "how do I use"}
)

// Fallback template pools. One entry from each pool is drawn independently
// and uniformly, so composed text is one of len(prefix)*len(body)*len(suffix)
// known combinations.
var (
	fallbackPrefixes = []string{
		"Hmm, ",
		"Good question! ",
		"Let me check... ",
		"Sorry, ",
	}
	fallbackBodies = []string{
		"I don't have an answer for that yet.",
		"I couldn't find anything matching that in the knowledge base.",
		"that one isn't in my notes.",
		"nothing in the ward documentation covers that.",
	}
	fallbackSuffixes = []string{
		" Try a department code like 'icu' to browse.",
		" Type 'help' to see what I can do.",
		" Maybe rephrase with the equipment or procedure name?",
		" The education team can add it if you ask them.",
	}
)

// Composer renders fallback text. The random source is injected so tests
// can seed it and assert over the full combination space.
type Composer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a composer using rng for template selection. A nil rng gets
// a time-seeded source.
func New(rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{rng: rng}
}

// ComposeFallback returns the reply for unrecognized input: a canned
// answer when the input contains a greeting, gratitude, or help phrase,
// otherwise a randomly assembled three-part "don't know" template.
func (c *Composer) ComposeFallback(queryText string) string {
	switch {
	case containsAny(queryText, greetingPhrases):
		return greetingReply
	case containsAny(queryText, thanksPhrases):
		return thanksReply
	case containsAny(queryText, helpPhrases):
		return helpReply
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return fallbackPrefixes[c.rng.Intn(len(fallbackPrefixes))] +
		fallbackBodies[c.rng.Intn(len(fallbackBodies))] +
		fallbackSuffixes[c.rng.Intn(len(fallbackSuffixes))]
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
