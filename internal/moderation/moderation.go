// Package moderation decides whether an entry's text fits its reaction.
//
// Entries reacting with a positive emoji may not use negative words, and every
// other entry may not use positive words. Words only match when they stand
// alone: "sadness" does not trigger "sad".
package moderation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/pbaille/blog/internal/domain"
)

// Names of the two keyword lists, as reported in decisions and metrics
const (
	NegativeWords = "negative"
	PositiveWords = "positive"
)

// Config holds the emoji classification and both keyword lists
type Config struct {
	PositiveEmojis []domain.Emoji `yaml:"positive_emojis"`
	NegativeWords  []string       `yaml:"negative_words"`
	PositiveWords  []string       `yaml:"positive_words"`
}

// DefaultConfig is the built-in rule set
func DefaultConfig() Config {
	return Config{
		PositiveEmojis: []domain.Emoji{domain.EmojiLaugh, domain.EmojiLike, domain.EmojiWow},
		NegativeWords:  []string{"sad", "fear", "lonely"},
		PositiveWords:  []string{"love", "happy", "trust"},
	}
}

// Decision describes the outcome of a check. Keyword is empty when the text
// was accepted.
type Decision struct {
	Wordlist string
	Field    string
	Keyword  string
}

func (d Decision) Rejected() bool {
	return d.Keyword != ""
}

type wordlist struct {
	name  string
	words []string
	re    *regexp.Regexp
}

func newWordlist(name string, words []string) (*wordlist, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%s word list is empty", name)
	}
	norm := make([]string, 0, len(words))
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return nil, fmt.Errorf("%s word list contains an empty word", name)
		}
		if slices.Contains(norm, w) {
			continue
		}
		norm = append(norm, w)
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile %s word list: %w", name, err)
	}
	return &wordlist{name: name, words: norm, re: re}, nil
}

// match returns the leftmost keyword in text, which must already be lower-cased
func (wl *wordlist) match(text string) string {
	if text == "" {
		return ""
	}
	return wl.re.FindString(text)
}

// Moderator applies a Config. It holds no mutable state and is safe for
// concurrent use.
type Moderator struct {
	positive map[domain.Emoji]bool
	negWords *wordlist
	posWords *wordlist
}

// New validates cfg and builds a Moderator from it
func New(cfg Config) (*Moderator, error) {
	if len(cfg.PositiveEmojis) == 0 {
		return nil, fmt.Errorf("no positive emojis configured")
	}
	positive := make(map[domain.Emoji]bool, len(cfg.PositiveEmojis))
	for _, e := range cfg.PositiveEmojis {
		parsed, err := domain.ParseEmoji(string(e))
		if err != nil {
			return nil, fmt.Errorf("positive emojis: %w", err)
		}
		positive[parsed] = true
	}

	neg, err := newWordlist(NegativeWords, cfg.NegativeWords)
	if err != nil {
		return nil, err
	}
	pos, err := newWordlist(PositiveWords, cfg.PositiveWords)
	if err != nil {
		return nil, err
	}
	for _, w := range neg.words {
		if slices.Contains(pos.words, w) {
			return nil, fmt.Errorf("word %q is in both keyword lists", w)
		}
	}

	return &Moderator{positive: positive, negWords: neg, posWords: pos}, nil
}

// Default returns a Moderator for DefaultConfig
func Default() *Moderator {
	m, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return m
}

// IsPositive reports whether emoji belongs to the positive subset
func (m *Moderator) IsPositive(emoji domain.Emoji) bool {
	return m.positive[emoji]
}

func (m *Moderator) wordlistFor(emoji domain.Emoji) *wordlist {
	if m.IsPositive(emoji) {
		return m.negWords
	}
	return m.posWords
}

// Check runs the rule and reports which list applied and what matched.
// Title is checked before content.
func (m *Moderator) Check(title, content string, emoji domain.Emoji) Decision {
	wl := m.wordlistFor(emoji)
	d := Decision{Wordlist: wl.name}

	if kw := wl.match(strings.ToLower(title)); kw != "" {
		d.Field, d.Keyword = "title", kw
		return d
	}
	if kw := wl.match(strings.ToLower(content)); kw != "" {
		d.Field, d.Keyword = "content", kw
	}
	return d
}

// Validate returns nil when the text is acceptable for emoji, and an
// invalidContent alert otherwise
func (m *Moderator) Validate(title, content string, emoji domain.Emoji) error {
	if m.Check(title, content, emoji).Rejected() {
		return domain.InvalidContent()
	}
	return nil
}

// Words returns a copy of the list applied to emoji
func (m *Moderator) Words(emoji domain.Emoji) []string {
	return slices.Clone(m.wordlistFor(emoji).words)
}
