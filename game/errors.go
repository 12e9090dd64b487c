package game

import (
	"errors"
	"fmt"
)

// Code classifies the expected failure modes of engine and search
// operations.
type Code string

const (
	CodeInvalidMove      Code = "INVALID_MOVE"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeInvalidGameState Code = "INVALID_GAME_STATE"
	CodeEngineError      Code = "ENGINE_ERROR"
	CodeAINoMoves        Code = "AI_NO_MOVES"
)

// Sentinels for errors.Is matching. Matching is by code only, so any
// *Error with the same code satisfies Is against these.
var (
	ErrInvalidMove      = &Error{Code: CodeInvalidMove}
	ErrNotYourTurn      = &Error{Code: CodeNotYourTurn}
	ErrInvalidGameState = &Error{Code: CodeInvalidGameState}
	ErrEngineError      = &Error{Code: CodeEngineError}
	ErrAINoMoves        = &Error{Code: CodeAINoMoves}
)

// Error is returned for every expected rule violation and engine
// failure. Callers branch on Code; Message is for humans.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewError builds an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code carried by err, or "" for nil and foreign
// errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
