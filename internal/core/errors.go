package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInProgress = errors.New("a reply is still being generated for this conversation")
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptyReply     = errors.New("completion returned no text")
)

// ValidationError reports a rejected field before anything is written.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// SessionDecodeError means a stored message list could not be parsed.
type SessionDecodeError struct {
	SessionID string
	Err       error
}

func (e *SessionDecodeError) Error() string {
	return fmt.Sprintf("decode chat session %s: %v", e.SessionID, e.Err)
}

func (e *SessionDecodeError) Unwrap() error {
	return e.Err
}

// CompletionError is returned by completion clients. StatusCode is zero for
// transport failures.
type CompletionError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed (%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
