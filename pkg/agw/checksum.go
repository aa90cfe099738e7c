// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

// Checksum computes the verification byte the cluster expects as the last
// byte of every logical payload: the two's complement of the 8-bit sum of
// the declared length and the payload bytes, so that
//
//	length + sum(payload) + checksum == 0 (mod 256)
//
// Validated against known-good packets captured from a factory AGW. Any
// single-byte change to length or payload changes the result.
func Checksum(length byte, payload []byte) byte {
	sum := length
	for _, b := range payload {
		sum += b
	}
	return -sum
}

// verifyChecksum checks a complete logical payload whose last byte is the
// checksum and whose declared length covers the checksum itself.
func verifyChecksum(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	body := payload[:len(payload)-1]
	return Checksum(byte(len(payload)), body) == payload[len(payload)-1]
}
