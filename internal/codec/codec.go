// Package codec converts a wire network's edges and counts to and from the
// flat strings stored in a home record.
//
// Both strings share one envelope: "<version>:<body>". The body is a list of
// entries joined by ";", or the empty token "~" when there are none, so an
// empty topology always encodes as "1:~" and never as "". Strings without a
// version header are read as legacy bodies with the same grammar; the empty
// string means the field was missing and decodes as empty.
//
//	connections:    1:0,64,0,1,64,0;0,64,0,0,64,3
//	wireSystemInfo: 1:Speaker (Small)=1;Wire=2
//
// Parse functions are strict and report a *FormatError. Decode functions are
// lenient: corrupt input yields an empty, non-nil value and a debug log.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recordwire/internal/ir"
)

// Envelope tokens.
const (
	Version    = ir.FormatVersion
	EmptyToken = "~"
	EntrySep   = ";"
	CountSep   = "="
	HeaderSep  = ":"
)

// Field names used in FormatError.
const (
	FieldConnections    = "connections"
	FieldWireSystemInfo = "wireSystemInfo"
)

// ErrReservedName is returned when a component name cannot be encoded: it is
// empty, not in normalized form, or contains a reserved delimiter.
var ErrReservedName = errors.New("component name is empty, not normalized or contains a reserved delimiter")

// FormatError describes why a persisted string could not be parsed.
type FormatError struct {
	Field string

	// Index is the zero-based entry index, or -1 for envelope errors.
	Index int

	Entry  string
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("parse %s: entry %d %q: %s", e.Field, e.Index, e.Entry, e.Reason)
}

// IsFormatError returns true if err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// envelope wraps body entries in the versioned header.
func envelope(entries []string) string {
	if len(entries) == 0 {
		return Version + HeaderSep + EmptyToken
	}
	return Version + HeaderSep + strings.Join(entries, EntrySep)
}

// openEnvelope strips the header and returns the body entries.
// Missing input, a bare empty token and an empty body all yield no entries.
func openEnvelope(field, s string) ([]string, error) {
	body := strings.TrimSpace(s)
	if body == "" {
		return nil, nil
	}

	if version, rest, ok := strings.Cut(body, HeaderSep); ok && isVersion(version) {
		if version != Version {
			return nil, &FormatError{
				Field:  field,
				Index:  -1,
				Reason: fmt.Sprintf("unsupported version %q", version),
			}
		}
		body = strings.TrimSpace(rest)
	}

	if body == "" || body == EmptyToken {
		return nil, nil
	}

	entries := strings.Split(body, EntrySep)
	// tolerate a trailing separator
	if strings.TrimSpace(entries[len(entries)-1]) == "" {
		entries = entries[:len(entries)-1]
	}
	return entries, nil
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
