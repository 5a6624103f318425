package domain

import "errors"

var (
	ErrIdAlreadyPresent = errors.New("a new entry cannot already have an ID")
	ErrIdMissing        = errors.New("invalid id")
	ErrInvalidContent   = errors.New("invalid content")
	ErrIdNotFound       = errors.New("entity not found")
	ErrEmojiMissing     = errors.New("emoji is required")
	ErrNotFound         = errors.New("entry not found")
)

// AlertError is a client error tagged with the entity it concerns and a
// machine-readable key
type AlertError struct {
	EntityName string
	ErrorKey   string
	Title      string
	err        error
}

// NewAlertError builds an entry alert that unwraps to err
func NewAlertError(err error, title, key string) *AlertError {
	return &AlertError{EntityName: EntityName, ErrorKey: key, Title: title, err: err}
}

func (e *AlertError) Error() string {
	return e.EntityName + "." + e.ErrorKey + ": " + e.Title
}

func (e *AlertError) Unwrap() error {
	return e.err
}

// IdAlreadyPresent is raised when a create request carries an id
func IdAlreadyPresent() *AlertError {
	return NewAlertError(ErrIdAlreadyPresent, "A new entry cannot already have an ID", "idexists")
}

// IdMissing is raised when an update request has no id
func IdMissing() *AlertError {
	return NewAlertError(ErrIdMissing, "Invalid id", "idnull")
}

func IdNotFound() *AlertError {
	return NewAlertError(ErrIdNotFound, "Entity not found", "idnotfound")
}

func InvalidContent() *AlertError {
	return NewAlertError(ErrInvalidContent, "Invalid content", "invalidContent")
}

func EmojiMissing() *AlertError {
	return NewAlertError(ErrEmojiMissing, "Emoji is required", "emojinull")
}
