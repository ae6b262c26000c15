// Copyright 2025 Certen Protocol
//
// Package cellerr defines the error kinds surfaced by the core data model.
// The core never logs and never silently converts between kinds: a
// BadFormat is never returned where a MissingData was produced, and vice
// versa. See spec §7.
package cellerr

import (
	"errors"
	"fmt"
)

// Kind distinguishes the six error categories: the five the core can
// produce, plus KindConfigInvalid for configuration rejected at startup.
type Kind string

const (
	// KindBadFormat: a byte sequence does not decode to a canonical cell.
	// Never retried — the caller must discard the bytes.
	KindBadFormat Kind = "BAD_FORMAT"

	// KindMissingData: a traversal needs a cell not present locally.
	// Recoverable — the higher layer fetches the hash and retries.
	KindMissingData Kind = "MISSING_DATA"

	// KindInvalidData: a decoded cell violates a structural invariant.
	// Treated as BadFormat for external bytes; a bug if produced internally.
	KindInvalidData Kind = "INVALID_DATA"

	// KindIndexOutOfBounds: random access outside [0, count). Programming error.
	KindIndexOutOfBounds Kind = "INDEX_OUT_OF_BOUNDS"

	// KindUnsupported: mixing incompatible cell kinds in an operation.
	KindUnsupported Kind = "UNSUPPORTED"

	// KindConfigInvalid: a configuration value is malformed or violates a
	// wire-format-fixed constant (e.g. EmbedThreshold/ChunkSize). Always a
	// startup-time error; never produced mid-traversal.
	KindConfigInvalid Kind = "CONFIG_INVALID"
)

// Error is the structured error type returned by pkg/cell and pkg/store.
type Error struct {
	Kind    Kind
	Message string
	Details string
	// Hash is set for KindMissingData: the content hash that could not be
	// resolved locally.
	Hash    [32]byte
	HasHash bool
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.HasHash {
		msg += fmt.Sprintf(" (hash=%x)", e.Hash)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind, ignoring its
// message and every other field, so errors.Is(err, &cellerr.Error{Kind:
// cellerr.KindMissingData}) matches by kind. The idiomatic comparison is
// cellerr.Is(err, cellerr.KindMissingData).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewBadFormat builds a BadFormat error with the byte position and reason.
func NewBadFormat(pos int, reason string) *Error {
	return newError(KindBadFormat, "invalid encoding at position %d: %s", pos, reason)
}

// NewMissingData builds a MissingData error for the given content hash.
func NewMissingData(hash [32]byte) *Error {
	return &Error{
		Kind:    KindMissingData,
		Message: "cell not available in memory or any consulted store",
		Hash:    hash,
		HasHash: true,
	}
}

// NewInvalidData builds an InvalidData error describing the violated invariant.
func NewInvalidData(reason string) *Error {
	return newError(KindInvalidData, "%s", reason)
}

// NewIndexOutOfBounds builds an IndexOutOfBounds error.
func NewIndexOutOfBounds(index, count int) *Error {
	return newError(KindIndexOutOfBounds, "index %d out of range [0, %d)", index, count)
}

// NewUnsupported builds an Unsupported error for an operation mixing
// incompatible cell kinds.
func NewUnsupported(op string, reason string) *Error {
	return newError(KindUnsupported, "operation %q unsupported: %s", op, reason)
}

// NewConfigInvalid builds a ConfigInvalid error describing the rejected
// configuration value.
func NewConfigInvalid(reason string) *Error {
	return newError(KindConfigInvalid, "%s", reason)
}

// WithDetails attaches additional detail text and returns the receiver.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithCause attaches an underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Is reports whether err is a cellerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HashOf extracts the missing hash from a MissingData error, if any.
func HashOf(err error) ([32]byte, bool) {
	var e *Error
	if errors.As(err, &e) && e.HasHash {
		return e.Hash, true
	}
	return [32]byte{}, false
}
