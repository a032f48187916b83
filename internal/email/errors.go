package email

import (
	"errors"
	"fmt"
)

var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrUnsupportedTemplate = errors.New("unsupported template")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnknownStyleKey     = errors.New("unknown style key")
	ErrInvalidStyleValue   = errors.New("invalid style value")
	ErrInvalidDirection    = errors.New("invalid direction")
	ErrInvalidDocument     = errors.New("invalid document")
	ErrInvalidEncoding     = errors.New("invalid text encoding")
)

// SectionNotFoundError reports an operation on a section id that is not in the
// document. It matches ErrSectionNotFound with errors.Is.
type SectionNotFoundError struct {
	ID string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("section %q not found", e.ID)
}

func (e *SectionNotFoundError) Unwrap() error {
	return ErrSectionNotFound
}
