// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"errors"
	"fmt"
)

// Protocol invariant violations. All of these are checked before any bus I/O
// is attempted, so a returned error means nothing was transmitted.
var (
	// ErrPayloadTooLarge reports a logical payload above 55 bytes.
	ErrPayloadTooLarge = errors.New("agw: logical payload exceeds 55 bytes")

	// ErrUnsafeGlyph reports text containing the byte that faults the
	// cluster hardware. Sanitize strips it; seeing this error means a
	// payload was built without sanitizing first.
	ErrUnsafeGlyph = errors.New("agw: text contains the crash glyph 0x96")

	// ErrPageMismatch reports an operation issued against the wrong page,
	// e.g. SetBodyTel while the cluster is on the audio page.
	ErrPageMismatch = errors.New("agw: operation not valid for the current page")
)

// BusError wraps a transmit failure from the underlying CAN driver. The
// remaining frames of the sequence were abandoned; the next Update tick
// re-asserts the page.
type BusError struct {
	Frame int // index of the frame that failed, 0 = first frame
	Err   error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("agw: bus transmit failed at frame %d: %v", e.Frame, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// DecodeError reports an inbound byte that does not map to any known wire
// value. Unknown values are rejected at decode time rather than passed
// through.
type DecodeError struct {
	Reason string
	Value  byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("agw: %s: 0x%02X", e.Reason, e.Value)
}
