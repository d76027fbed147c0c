package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTemporary    = errors.New("temporary failure")
)

// GenericRequestFailure is shown when the backend rejects a call without a message.
const GenericRequestFailure = "요청 실패"

// RequestError is a non-2xx, non-401 backend answer. Message is the server's text, trusted verbatim.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e == nil {
		return GenericRequestFailure
	}
	if strings.TrimSpace(e.Message) == "" {
		return GenericRequestFailure
	}
	return e.Message
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// UserMessage extracts the text a person should see for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	return err.Error()
}

// InputError is a local validation failure; the request is never sent.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func NewInputError(field, message string) error {
	return &InputError{Field: field, Message: message}
}
