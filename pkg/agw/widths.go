// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

// crashWidth marks the one character code whose glyph faults the cluster
// hardware. It must never be transmitted.
const crashWidth = 99

// crashGlyph is the character code carrying crashWidth in the table below.
const crashGlyph = 0x96

// charWidths maps IC character codes to pixel widths, a 1 pixel
// inter-character gap already included. Zero means the code has no glyph.
// Transcribed from bus-captured renderings; the cluster charset is not
// plain ASCII above 0x7F.
var charWidths = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 7, 6, 0, 0, 0,
	0, 6, 6, 6, 7, 7, 3, 2,
	7, 7, 0, 0, 10, 10, 6, 6,
	6, 3, 4, 6, 6, 6, 6, 2,
	5, 5, 6, 6, 3, 5, 2, 6,
	7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 3, 4, 5, 6, 5, 6,

	6, 7, 7, 7, 7, 6, 6, 7,
	7, 3, 5, 7, 6, 7, 0, 0,
	7, 7, 7, 7, 7, 7, 7, 11,
	7, 7, 7, 4, 6, 4, 3, 6,
	3, 6, 6, 6, 6, 7, 6, 8,
	6, 3, 5, 6, 3, 9, 7, 7,
	6, 6, 6, 6, 5, 7, 7, 9,
	7, 6, 6, 6, 2, 6, 7, 0,

	7, 6, 8, 9, 6, 6, 6, 6,
	7, 6, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, crashWidth, 0, // 0x96 crashes the IC!
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,

	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Measure returns the rendered pixel width of text on the cluster display.
// Unsupported glyphs contribute nothing; the crash glyph contributes its
// sentinel width so that unsanitized text measurably stands out.
func Measure(text string) int {
	w := 0
	for i := 0; i < len(text); i++ {
		w += int(charWidths[text[i]])
	}
	return w
}

// CanFitBodyText reports whether text fits the display width unclipped.
func CanFitBodyText(text string) bool {
	return Measure(text) <= DisplayWidthPx
}

// LeftPadding returns the left padding in pixels for text of the given
// measured width: half the free space when centering, zero otherwise.
func LeftPadding(width int, center bool) int {
	if !center {
		return 0
	}
	pad := (DisplayWidthPx - width) / 2
	if pad < 0 {
		return 0
	}
	return pad
}

// Sanitize replaces every occurrence of the crash glyph with a space. Every
// command builder applies it before any byte reaches segmentation; this is a
// safety invariant, not cosmetics.
func Sanitize(text string) string {
	out := []byte(text)
	dirty := false
	for i, b := range out {
		if b == crashGlyph {
			out[i] = ' '
			dirty = true
		}
	}
	if !dirty {
		return text
	}
	return string(out)
}

// ValidateText rejects text containing the crash glyph. Command builders
// sanitize silently; callers taking user input can use this to report the
// problem instead of quietly swapping in a space.
func ValidateText(text string) error {
	if containsCrashGlyph([]byte(text)) {
		return ErrUnsafeGlyph
	}
	return nil
}

// Truncate returns the longest prefix of text that fits the display width.
func Truncate(text string) string {
	w := 0
	for i := 0; i < len(text); i++ {
		w += int(charWidths[text[i]])
		if w > DisplayWidthPx {
			return text[:i]
		}
	}
	return text
}

// containsCrashGlyph reports whether any byte of p is the crash glyph.
func containsCrashGlyph(p []byte) bool {
	for _, b := range p {
		if b == crashGlyph {
			return true
		}
	}
	return false
}
