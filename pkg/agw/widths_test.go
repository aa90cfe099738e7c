// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import "testing"

func TestMeasure(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single digit", "7", 7},
		{"digits", "123", 21},
		{"lowercase", "abc", 18},
		{"space has width", " ", 6},
		{"unknown glyph is zero width", "\x00", 0},
		{"mixed", "a1 ", 6 + 7 + 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Measure(tt.text); got != tt.want {
				t.Errorf("Measure(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCanFitBodyText(t *testing.T) {
	// Eight digits are 56 px, exactly the display width.
	if !CanFitBodyText("12345678") {
		t.Error("56 px text should fit a 56 px display")
	}
	if CanFitBodyText("123456789") {
		t.Error("63 px text should not fit a 56 px display")
	}
}

func TestLeftPadding(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		center bool
		want   int
	}{
		{"left aligned", 18, false, 0},
		{"centered even split", 18, true, 19},
		{"centered odd remainder rounds down", 21, true, 17},
		{"full width", 56, true, 0},
		{"overwide clamps to zero", 70, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeftPadding(tt.width, tt.center); got != tt.want {
				t.Errorf("LeftPadding(%d, %v) = %d, want %d", tt.width, tt.center, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean text untouched", "BT Audio", "BT Audio"},
		{"lone crash glyph", "\x96", " "},
		{"embedded crash glyph", "a\x96b", "a b"},
		{"multiple crash glyphs", "\x96\x96", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if containsCrashGlyph([]byte(got)) {
				t.Errorf("Sanitize(%q) still contains the crash glyph", tt.in)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("BT Audio"); err != nil {
		t.Errorf("clean text rejected: %v", err)
	}
	if err := ValidateText("a\x96b"); err != ErrUnsafeGlyph {
		t.Errorf("got %v, want ErrUnsafeGlyph", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fits untouched", "abc", "abc"},
		{"exactly full width", "12345678", "12345678"},
		{"one over", "123456789", "12345678"},
		{"zero width glyphs never clip", "\x00\x00\x00", "\x00\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in)
			if got != tt.want {
				t.Errorf("Truncate(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !CanFitBodyText(got) {
				t.Errorf("Truncate(%q) = %q does not fit the display", tt.in, got)
			}
		})
	}
}
