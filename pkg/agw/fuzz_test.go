// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// TestFuzz_SplitReassembleRoundTrip checks that every payload up to the size
// cap survives segmentation and reassembly bit for bit.
func TestFuzz_SplitReassembleRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	r := NewReassembler()

	for round := 0; round < rounds; round++ {
		payload := make([]byte, rng.Intn(MaxPayloadSize+1))
		rng.Read(payload)

		frames, err := SplitPayload(payload)
		if err != nil {
			t.Fatalf("round %d: SplitPayload(%d bytes) failed: %v", round, len(payload), err)
		}
		if len(frames) > MaxFramesPerPayload {
			t.Fatalf("round %d: %d bytes produced %d frames", round, len(payload), len(frames))
		}

		var got []byte
		for i, f := range frames {
			out, err := r.Feed(f)
			if err != nil {
				t.Fatalf("round %d: Feed frame %d failed: %v", round, i, err)
			}
			if out != nil {
				got = out
			}
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round %d: round trip mangled %d byte payload", round, len(payload))
		}
	}
}

// TestFuzz_ReassemblerGarbage feeds random frames and checks the reassembler
// never panics, never returns an oversized payload, and recovers to accept a
// well-formed transfer afterwards.
func TestFuzz_ReassemblerGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	r := NewReassembler()

	for round := 0; round < rounds; round++ {
		f := Frame{ID: ReceiveCANID}
		rng.Read(f.Data[:])
		out, _ := r.Feed(f)
		if len(out) > MaxPayloadSize {
			t.Fatalf("round %d: reassembler returned %d bytes", round, len(out))
		}
	}

	r.Reset()
	payload := []byte{PkgPageStatus, byte(PageAudio)}
	payload = append(payload, Checksum(byte(len(payload)+1), payload))
	frames, _ := SplitPayload(payload)
	got, err := r.Feed(frames[0])
	if err != nil {
		t.Fatalf("clean transfer after garbage rejected: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("clean transfer after garbage mangled: % X", got)
	}
}

// TestFuzz_ChecksumSealsPayloads checks that every sealed command payload
// passes validation and that the crash glyph never survives sanitization.
func TestFuzz_CommandBuilders(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	pages := []Page{PageOther, PageAudio, PageTelephone}

	randomText := func() string {
		b := make([]byte, rng.Intn(24))
		rng.Read(b)
		return string(b)
	}

	for round := 0; round < rounds; round++ {
		page := pages[rng.Intn(len(pages))]
		center := rng.Intn(2) == 1

		var payload []byte
		switch rng.Intn(3) {
		case 0:
			payload = buildHeaderPayload(page, randomText(), center)
		case 1:
			payload = buildBodyPayload(page, randomText(), center)
		case 2:
			payload = buildInitPayload(page, randomText(), center,
				Symbol(rng.Intn(11)), Symbol(rng.Intn(11)))
		}

		if len(payload) > MaxPayloadSize {
			t.Fatalf("round %d: builder produced %d bytes", round, len(payload))
		}
		if err := ValidatePayload(payload); err != nil {
			t.Fatalf("round %d: sealed payload fails validation: %v", round, err)
		}
		// Every byte before the checksum is layout or sanitized text, so the
		// crash glyph can only legally appear as the checksum itself.
		if containsCrashGlyph(payload[:len(payload)-1]) {
			t.Fatalf("round %d: crash glyph in sealed payload: % X", round, payload)
		}
	}
}

// TestFuzz_DisplayNoPanic drives a display with random commands and random
// inbound frames, checking errors stay typed and no state panics.
func TestFuzz_DisplayNoPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	bus := newRecordingBus()
	d := newTestDisplay(bus)
	pages := []Page{PageOther, PageAudio, PageTelephone}

	randomText := func() string {
		b := make([]byte, rng.Intn(16))
		rng.Read(b)
		return string(b)
	}

	for round := 0; round < rounds; round++ {
		switch rng.Intn(6) {
		case 0:
			_ = d.InitPage(pages[rng.Intn(len(pages))], randomText(), rng.Intn(2) == 1,
				Symbol(rng.Intn(11)), Symbol(rng.Intn(11)))
		case 1:
			_ = d.SetHeader(pages[rng.Intn(len(pages))], randomText(), rng.Intn(2) == 1)
		case 2:
			_ = d.SetBody(pages[rng.Intn(len(pages))], randomText(), rng.Intn(2) == 1)
		case 3:
			_ = d.SetBodyTel(randomText(), randomText(), randomText(), randomText())
		case 4:
			_ = d.Update()
		case 5:
			f := Frame{ID: ReceiveCANID}
			rng.Read(f.Data[:])
			_ = d.ProcessResponse(f)
		}
	}

	for i, f := range bus.frames {
		if f.ID != SendCANID {
			t.Fatalf("frame %d sent on identifier 0x%03X", i, f.ID)
		}
	}
}
