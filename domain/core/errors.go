package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Ingestion errors
	ErrInputFormat = errors.New("unsupported input format")
	ErrEncoding    = errors.New("undecodable text encoding")
	ErrEmptyInput  = errors.New("no usable rows")
	ErrSchema      = errors.New("required column absent")
)

// Error constructors with context
func NewInputFormatError(extension string) error {
	return fmt.Errorf("%w: %s", ErrInputFormat, extension)
}

func NewEncodingError(filename string, tried []string) error {
	return fmt.Errorf("%w: %s (tried %v)", ErrEncoding, filename, tried)
}

func NewEmptyInputError(stage string) error {
	return fmt.Errorf("%w: %s", ErrEmptyInput, stage)
}

func NewSchemaError(role, column string) error {
	return fmt.Errorf("%w: %s column %q", ErrSchema, role, column)
}

// Error checking helpers
func IsInputFormatError(err error) bool {
	return errors.Is(err, ErrInputFormat)
}

func IsEncodingError(err error) bool {
	return errors.Is(err, ErrEncoding)
}

func IsEmptyInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsIngestionError reports whether err belongs to the ingestion taxonomy and
// should abort the upload with a user-visible message.
func IsIngestionError(err error) bool {
	return IsInputFormatError(err) || IsEncodingError(err) ||
		IsEmptyInputError(err) || IsSchemaError(err)
}
