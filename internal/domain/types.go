package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityName tags every alert and error raised for entries
const EntityName = "entry"

// Emoji is the reaction attached to an entry
type Emoji string

const (
	EmojiLike  Emoji = "LIKE"
	EmojiLove  Emoji = "LOVE"
	EmojiLaugh Emoji = "LAUGH"
	EmojiWow   Emoji = "WOW"
	EmojiSad   Emoji = "SAD"
	EmojiAngry Emoji = "ANGRY"
)

// Emojis lists every known reaction in declaration order
var Emojis = []Emoji{EmojiLike, EmojiLove, EmojiLaugh, EmojiWow, EmojiSad, EmojiAngry}

// ParseEmoji resolves a reaction name. HAHA is accepted as an alias of LAUGH.
func ParseEmoji(s string) (Emoji, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "HAHA" {
		return EmojiLaugh, nil
	}
	for _, e := range Emojis {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emoji %q", s)
}

func (e Emoji) String() string {
	return string(e)
}

// UnmarshalJSON rejects reactions outside the enumeration
func (e *Emoji) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*e = ""
		return nil
	}
	parsed, err := ParseEmoji(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Entry represents a blog post
type Entry struct {
	ID        *int64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Emoji     Emoji     `json:"emoji"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// HasID reports whether the entry carries an identifier
func (e *Entry) HasID() bool {
	return e.ID != nil
}

// PageRequest selects a slice of entries
type PageRequest struct {
	Page int
	Size int
	Sort string
	Desc bool
}

// Offset is the number of rows skipped before the page starts
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of an ordered result set
type Page struct {
	Entries []Entry
	Total   int
	Request PageRequest
}

// TotalPages is zero for an empty result set
func (p *Page) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	return (p.Total + p.Request.Size - 1) / p.Request.Size
}
