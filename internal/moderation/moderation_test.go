package moderation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pbaille/blog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	positiveEmojis = []domain.Emoji{domain.EmojiLaugh, domain.EmojiLike, domain.EmojiWow}
	otherEmojis    = []domain.Emoji{domain.EmojiLove, domain.EmojiSad, domain.EmojiAngry}
)

func TestRejectsNegativeWordsForPositiveEmoji(t *testing.T) {
	m := Default()

	for _, emoji := range positiveEmojis {
		for _, word := range []string{"sad", "fear", "lonely"} {
			for _, variant := range []string{word, strings.ToUpper(word), strings.ToUpper(word[:1]) + word[1:]} {
				text := fmt.Sprintf("so %s, really", variant)

				err := m.Validate(text, "", emoji)
				assert.ErrorIs(t, err, domain.ErrInvalidContent, "%s title %q", emoji, text)

				err = m.Validate("", text, emoji)
				assert.ErrorIs(t, err, domain.ErrInvalidContent, "%s content %q", emoji, text)
			}
		}
	}
}

func TestRejectsPositiveWordsForOtherEmoji(t *testing.T) {
	m := Default()

	for _, emoji := range otherEmojis {
		for _, word := range []string{"love", "happy", "trust"} {
			err := m.Validate(word, "", emoji)
			assert.ErrorIs(t, err, domain.ErrInvalidContent, "%s title %q", emoji, word)

			err = m.Validate("", "I "+strings.ToUpper(word)+"!", emoji)
			assert.ErrorIs(t, err, domain.ErrInvalidContent, "%s content %q", emoji, word)
		}
	}
}

func TestListsAreExclusive(t *testing.T) {
	m := Default()

	// positive emoji only checks the negative list
	assert.NoError(t, m.Validate("love and trust", "so happy", domain.EmojiLike))
	// and the other way round
	assert.NoError(t, m.Validate("sad", "fear of being lonely", domain.EmojiAngry))
}

func TestWholeWordsOnly(t *testing.T) {
	m := Default()

	for _, text := range []string{"sadly", "sadness", "fearless", "lonelyhearts", "besad", "sad_face", "sad2"} {
		assert.NoError(t, m.Validate(text, text, domain.EmojiWow), text)
	}
	for _, text := range []string{"lovely", "unhappy", "trustworthy", "glove"} {
		assert.NoError(t, m.Validate(text, text, domain.EmojiSad), text)
	}

	// punctuation and line breaks are boundaries
	assert.Error(t, m.Validate("(sad)", "", domain.EmojiWow))
	assert.Error(t, m.Validate("", "line one\nlonely-hearts", domain.EmojiWow))
	assert.Error(t, m.Validate("don't-trust.", "", domain.EmojiAngry))
}

func TestEmptyTextAlwaysPasses(t *testing.T) {
	m := Default()
	for _, emoji := range domain.Emojis {
		assert.NoError(t, m.Validate("", "", emoji), emoji)
	}
}

func TestScenarios(t *testing.T) {
	m := Default()

	err := m.Validate("I am SAD today", "", domain.EmojiLike)
	require.Error(t, err)
	var alert *domain.AlertError
	require.True(t, errors.As(err, &alert))
	assert.Equal(t, "invalidContent", alert.ErrorKey)
	assert.Equal(t, "entry", alert.EntityName)

	err = m.Validate("feeling happy", "", domain.EmojiAngry)
	require.True(t, errors.As(err, &alert))
	assert.Equal(t, "invalidContent", alert.ErrorKey)

	assert.NoError(t, m.Validate("great day", "nothing special", domain.EmojiLike))
}

func TestCheckReportsMatch(t *testing.T) {
	m := Default()

	d := m.Check("A lonely night", "so sad", domain.EmojiLaugh)
	assert.True(t, d.Rejected())
	assert.Equal(t, NegativeWords, d.Wordlist)
	assert.Equal(t, "title", d.Field)
	assert.Equal(t, "lonely", d.Keyword)

	d = m.Check("fine", "Trust me", domain.EmojiLove)
	assert.Equal(t, PositiveWords, d.Wordlist)
	assert.Equal(t, "content", d.Field)
	assert.Equal(t, "trust", d.Keyword)

	d = m.Check("fine", "fine", domain.EmojiLove)
	assert.False(t, d.Rejected())
	assert.Equal(t, PositiveWords, d.Wordlist)
	assert.Empty(t, d.Field)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PositiveEmojis = nil
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.PositiveEmojis = []domain.Emoji{"THUMBSUP"}
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.NegativeWords = []string{}
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.PositiveWords = []string{"love", " "}
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.PositiveWords = append(cfg.PositiveWords, "SAD")
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestCustomConfig(t *testing.T) {
	m, err := New(Config{
		PositiveEmojis: []domain.Emoji{"haha", "LOVE"},
		NegativeWords:  []string{"Gloomy", "c++"},
		PositiveWords:  []string{"joy"},
	})
	require.NoError(t, err)

	assert.True(t, m.IsPositive(domain.EmojiLaugh))
	assert.True(t, m.IsPositive(domain.EmojiLove))
	assert.False(t, m.IsPositive(domain.EmojiLike))
	assert.Equal(t, []string{"gloomy", "c++"}, m.Words(domain.EmojiLove))

	assert.Error(t, m.Validate("GLOOMY day", "", domain.EmojiLove))
	assert.Error(t, m.Validate("", "pure joy", domain.EmojiLike))
	assert.NoError(t, m.Validate("sad", "", domain.EmojiLove))
}

func TestConcurrentUse(t *testing.T) {
	m := Default()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Error(t, m.Validate("sad", "", domain.EmojiWow))
				assert.NoError(t, m.Validate("glad", "", domain.EmojiWow))
			}
		}()
	}
	wg.Wait()
}
