// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"fmt"
	"strings"
)

// FormatPackageID returns the human-readable name for a package identifier.
func FormatPackageID(pkg byte) string {
	switch pkg {
	case PkgPageStatus:
		return "PAGE_STATUS"
	case PkgInitPage:
		return "INIT_PAGE"
	case PkgSetBody:
		return "SET_BODY"
	case PkgSetHeader:
		return "SET_HEADER"
	default:
		return "UNKNOWN"
	}
}

// FormatFrame renders a physical frame with its direction and segmentation
// role, for the live log and replay tools.
func FormatFrame(f Frame) string {
	dir := "???"
	switch f.ID {
	case SendCANID:
		dir = "AGW >> IC"
	case ReceiveCANID:
		dir = "IC >> AGW"
	}
	role := "??"
	switch f.Data[0] & 0xF0 {
	case firstFrameMarker:
		role = "FF"
	case consecutiveFrameMarker:
		role = fmt.Sprintf("CF.%X", f.Data[0]&0x0F)
	}
	return fmt.Sprintf("[%s] %s %s", dir, role, f)
}

// FormatPayload renders a complete logical payload in human-readable form.
// The trailing checksum byte is verified and stripped before decoding.
func FormatPayload(payload []byte) string {
	if err := ValidatePayload(payload); err != nil {
		return fmt.Sprintf("  INVALID payload (%v): %s\n", err, hexDump(payload))
	}
	body := payload[:len(payload)-1]
	if len(body) < 2 {
		return fmt.Sprintf("  Short payload: %s\n", hexDump(body))
	}

	pkg, pageByte := body[0], body[1]
	page, pageErr := PageFromWire(pageByte)
	pageStr := page.String()
	if pageErr != nil {
		pageStr = fmt.Sprintf("UNKNOWN(0x%02X)", pageByte)
	}
	head := fmt.Sprintf("  %s (0x%02X) page=%s len=%d\n", FormatPackageID(pkg), pkg, pageStr, len(payload))

	switch pkg {
	case PkgPageStatus:
		return head

	case PkgSetHeader:
		if len(body) < 5 {
			return head + "  (truncated)\n"
		}
		return head + formatTextField("Header", body[3], body[4:])

	case PkgInitPage:
		if len(body) < 7 {
			return head + "  (truncated)\n"
		}
		upper, _ := SymbolFromWire(body[4])
		lower, _ := SymbolFromWire(body[5])
		return head +
			fmt.Sprintf("  Symbols: upper=%s lower=%s\n", upper, lower) +
			formatTextField("Header", body[3], body[6:])

	case PkgSetBody:
		if len(body) < 4 {
			return head + "  (truncated)\n"
		}
		lines := int(body[3])
		out := head + fmt.Sprintf("  Lines: %d\n", lines)
		rest := body[4:]
		for i := 0; i < lines; i++ {
			if len(rest) < 2 {
				return out + "  (truncated)\n"
			}
			pad, n := rest[0], int(rest[1])
			if len(rest) < 2+n {
				return out + "  (truncated)\n"
			}
			out += formatTextField(fmt.Sprintf("Line %d", i+1), pad, rest[1:2+n])
			rest = rest[2+n:]
		}
		return out

	default:
		return head + "  Payload: " + hexDump(body) + "\n"
	}
}

// formatTextField renders a length-prefixed text field with its padding.
// raw[0] is the length byte, raw[1:] the text bytes.
func formatTextField(label string, pad byte, raw []byte) string {
	n := int(raw[0])
	if n > len(raw)-1 {
		n = len(raw) - 1
	}
	text := string(raw[1 : 1+n])
	return fmt.Sprintf("  %s: %q (pad=%dpx, %dpx wide)\n", label, text, pad, Measure(text))
}

func hexDump(p []byte) string {
	parts := make([]string, len(p))
	for i, b := range p {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
