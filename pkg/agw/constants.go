// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

// Package agw speaks the AGW -> IC display protocol of Mercedes W203/W211/W209
// instrument clusters over CAN.
//
// The AGW (audio gateway, the factory radio) drives the text area of the
// cluster with multi-frame packets on CAN ID 0x1A4; the cluster answers on
// 0x1D0. This package builds those packets (page init, header, body),
// segments them into 8-byte frames, reassembles and validates the cluster's
// responses, and tracks which page the cluster currently shows so the
// display can be reclaimed when the real AGW overrides it.
//
// The protocol is reverse engineered from bus captures; all wire constants
// below must be preserved bit for bit.
package agw

// CAN identifiers of the AGW <-> IC channel (11-bit).
const (
	SendCANID    = 0x1A4 // host -> instrument cluster
	ReceiveCANID = 0x1D0 // instrument cluster -> host
)

// Packet size limits
const (
	DisplayWidthPx      = 56 // usable text width of the cluster display
	MaxPayloadSize      = 55 // logical payload bytes, checksum included
	MaxFramesPerPayload = 8  // 6 first-frame bytes + 7x7 consecutive = 55
)

// Segmentation header nibbles (ISO 15765-2 style, vendor adapted)
const (
	firstFrameMarker       = 0x10
	consecutiveFrameMarker = 0x20
)

// Logical package identifiers (first payload byte)
const (
	PkgPageStatus = 0x20 // IC -> AGW: active page report
	PkgInitPage   = 0x24 // AGW -> IC: establish page layout
	PkgSetBody    = 0x26 // AGW -> IC: body text (1 line, or 4 on telephone)
	PkgSetHeader  = 0x29 // AGW -> IC: header text only
)

// Page is one of the logical pages of the cluster display.
type Page byte

// Page codes on the wire
const (
	PageOther     Page = 0x00
	PageAudio     Page = 0x03
	PageTelephone Page = 0x05
)

// String returns the human-readable page name.
func (p Page) String() string {
	switch p {
	case PageAudio:
		return "AUDIO"
	case PageTelephone:
		return "TELEPHONE"
	case PageOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// PageFromWire maps a wire byte to a Page, rejecting unknown codes.
func PageFromWire(b byte) (Page, error) {
	switch Page(b) {
	case PageAudio, PageTelephone, PageOther:
		return Page(b), nil
	default:
		return PageOther, &DecodeError{Reason: "unknown page code", Value: b}
	}
}

// Symbol is a glyph the cluster can draw above or below the body text.
type Symbol byte

// Symbol codes on the wire
const (
	SymbolNone      Symbol = 0x00
	SymbolSkipTrack Symbol = 0x01 // |>>
	SymbolPrevTrack Symbol = 0x02 // <<|
	SymbolFastFwd   Symbol = 0x03 // >>
	SymbolFastRev   Symbol = 0x04 // <<
	SymbolPlay      Symbol = 0x05
	SymbolRewind    Symbol = 0x06
	SymbolUpArrow   Symbol = 0x09
	SymbolDownArrow Symbol = 0x0A
)

// String returns the human-readable symbol name.
func (s Symbol) String() string {
	switch s {
	case SymbolNone:
		return "NONE"
	case SymbolSkipTrack:
		return "SKIP_TRACK"
	case SymbolPrevTrack:
		return "PREV_TRACK"
	case SymbolFastFwd:
		return "FAST_FWD"
	case SymbolFastRev:
		return "FAST_REV"
	case SymbolPlay:
		return "PLAY"
	case SymbolRewind:
		return "REWIND"
	case SymbolUpArrow:
		return "UP_ARROW"
	case SymbolDownArrow:
		return "DOWN_ARROW"
	default:
		return "UNKNOWN"
	}
}

// SymbolFromWire maps a wire byte to a Symbol, rejecting unknown codes.
func SymbolFromWire(b byte) (Symbol, error) {
	switch Symbol(b) {
	case SymbolNone, SymbolSkipTrack, SymbolPrevTrack, SymbolFastFwd,
		SymbolFastRev, SymbolPlay, SymbolRewind, SymbolUpArrow, SymbolDownArrow:
		return Symbol(b), nil
	default:
		return SymbolNone, &DecodeError{Reason: "unknown symbol code", Value: b}
	}
}
