package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmoji(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		in  string
		out Emoji
	}{
		{in: "LIKE", out: EmojiLike},
		{in: "like", out: EmojiLike},
		{in: " wow ", out: EmojiWow},
		{in: "HAHA", out: EmojiLaugh},
		{in: "LAUGH", out: EmojiLaugh},
		{in: "ANGRY", out: EmojiAngry},
	}

	for _, fix := range fixtures {
		e, err := ParseEmoji(fix.in)
		assert.NoError(err, fix.in)
		assert.Equal(fix.out, e, fix.in)
	}

	_, err := ParseEmoji("THUMBSUP")
	assert.Error(err)
}

func TestEntryJSON(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","content":"c","emoji":"haha"}`), &e))
	assert.False(t, e.HasID())
	assert.Equal(t, EmojiLaugh, e.Emoji)

	require.NoError(t, json.Unmarshal([]byte(`{"id":0,"title":"t","content":"c","emoji":"SAD"}`), &e))
	assert.True(t, e.HasID())
	assert.Equal(t, int64(0), *e.ID)

	err := json.Unmarshal([]byte(`{"title":"t","emoji":"MEH"}`), &e)
	assert.Error(t, err)
}

func TestAlertErrorUnwraps(t *testing.T) {
	err := InvalidContent()
	assert.True(t, errors.Is(err, ErrInvalidContent))
	assert.False(t, errors.Is(err, ErrIdMissing))
	assert.Equal(t, "invalidContent", err.ErrorKey)
	assert.Equal(t, "entry", err.EntityName)

	var alert *AlertError
	assert.True(t, errors.As(IdMissing(), &alert))
	assert.Equal(t, "idnull", alert.ErrorKey)
	assert.Equal(t, "idexists", IdAlreadyPresent().ErrorKey)
}

func TestPageMath(t *testing.T) {
	p := Page{Total: 41, Request: PageRequest{Page: 2, Size: 20}}
	assert.Equal(t, 3, p.TotalPages())
	assert.Equal(t, 40, p.Request.Offset())

	empty := Page{Request: PageRequest{Size: 20}}
	assert.Equal(t, 0, empty.TotalPages())
}
