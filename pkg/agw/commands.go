// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

// Logical payload builders for the three outbound packages. Text is
// sanitized and truncated to the display width before a single byte is laid
// out, and every payload is sealed with its checksum before segmentation.
//
// Common layout: [pkg, page, totalLen, ...] where totalLen counts the whole
// payload including the trailing checksum byte.

// sealPayload writes the total length into byte 2 and appends the checksum.
func sealPayload(body []byte) []byte {
	total := byte(len(body) + 1)
	body[2] = total
	return append(body, Checksum(total, body))
}

// fitText sanitizes and truncates text, returning the bytes to transmit and
// the left padding in pixels.
func fitText(text string, center bool) ([]byte, byte) {
	fitted := Truncate(Sanitize(text))
	return []byte(fitted), byte(LeftPadding(Measure(fitted), center))
}

// buildHeaderPayload lays out Package 29: header text only.
// [0x29, page, totalLen, padPx, textLen, text...]
func buildHeaderPayload(page Page, text string, center bool) []byte {
	t, pad := fitText(text, center)
	body := append([]byte{PkgSetHeader, byte(page), 0, pad, byte(len(t))}, t...)
	return sealPayload(body)
}

// buildBodyPayload lays out Package 26 with a single body line (the audio
// page only has one). [0x26, page, totalLen, lineCount=1, padPx, textLen, text...]
func buildBodyPayload(page Page, text string, center bool) []byte {
	t, pad := fitText(text, center)
	body := append([]byte{PkgSetBody, byte(page), 0, 1, pad, byte(len(t))}, t...)
	return sealPayload(body)
}

// buildBodyTelPayload lays out the telephone-page Package 26 variant with
// four lines, each centered. Four display-width lines can exceed the 55 byte
// payload cap, in which case the whole command is rejected before any I/O.
func buildBodyTelPayload(lines [4]string) ([]byte, error) {
	body := []byte{PkgSetBody, byte(PageTelephone), 0, 4}
	for _, line := range lines {
		t, pad := fitText(line, true)
		body = append(body, pad, byte(len(t)))
		body = append(body, t...)
	}
	if len(body)+1 > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	return sealPayload(body), nil
}

// buildInitPayload lays out Package 24: page format, header text and the two
// symbols flanking the body.
// [0x24, page, totalLen, padPx, upperSym, lowerSym, textLen, header...]
func buildInitPayload(page Page, header string, center bool, upper, lower Symbol) []byte {
	t, pad := fitText(header, center)
	body := append([]byte{PkgInitPage, byte(page), 0, pad, byte(upper), byte(lower), byte(len(t))}, t...)
	return sealPayload(body)
}
