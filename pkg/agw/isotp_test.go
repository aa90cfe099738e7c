// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// recordingBus collects sent frames and can fail after a set count.
type recordingBus struct {
	frames    []Frame
	failAfter int // -1 means never fail
}

func newRecordingBus() *recordingBus {
	return &recordingBus{failAfter: -1}
}

func (b *recordingBus) Send(f Frame) error {
	if b.failAfter >= 0 && len(b.frames) >= b.failAfter {
		return errors.New("tx buffer full")
	}
	b.frames = append(b.frames, f)
	return nil
}

func testPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i + 1)
	}
	return p
}

func TestSplitPayload_FrameLayout(t *testing.T) {
	frames, err := SplitPayload([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11})
	if err != nil {
		t.Fatalf("SplitPayload failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	ff := frames[0]
	if ff.ID != SendCANID {
		t.Errorf("first frame ID = 0x%03X, want 0x%03X", ff.ID, SendCANID)
	}
	if ff.Data[0] != 0x10 || ff.Data[1] != 7 {
		t.Errorf("first frame header = %02X %02X, want 10 07", ff.Data[0], ff.Data[1])
	}
	if !bytes.Equal(ff.Data[2:8], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}) {
		t.Errorf("first frame payload = % X", ff.Data[2:8])
	}

	cf := frames[1]
	if cf.Data[0] != 0x21 {
		t.Errorf("consecutive frame marker = 0x%02X, want 0x21", cf.Data[0])
	}
	if cf.Data[1] != 0x11 {
		t.Errorf("consecutive frame payload = 0x%02X, want 0x11", cf.Data[1])
	}
	// Unused trailing bytes stay zero.
	for i := 2; i < 8; i++ {
		if cf.Data[i] != 0 {
			t.Errorf("byte %d of short frame = 0x%02X, want 0", i, cf.Data[i])
		}
	}
}

func TestSplitPayload_FrameCount(t *testing.T) {
	tests := []struct {
		length int
		frames int
	}{
		{0, 1},
		{1, 1},
		{6, 1},
		{7, 2},
		{13, 2},
		{14, 3},
		{54, 8},
		{55, 8},
	}

	for _, tt := range tests {
		frames, err := SplitPayload(testPayload(tt.length))
		if err != nil {
			t.Fatalf("SplitPayload(%d bytes) failed: %v", tt.length, err)
		}
		if len(frames) != tt.frames {
			t.Errorf("SplitPayload(%d bytes) = %d frames, want %d", tt.length, len(frames), tt.frames)
		}
		if len(frames) > MaxFramesPerPayload {
			t.Errorf("SplitPayload(%d bytes) exceeds %d frames", tt.length, MaxFramesPerPayload)
		}
	}
}

func TestSplitPayload_TooLarge(t *testing.T) {
	if _, err := SplitPayload(testPayload(MaxPayloadSize + 1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("got %v, want ErrPayloadTooLarge", err)
	}
}

func TestSplitReassemble_RoundTrip(t *testing.T) {
	r := NewReassembler()
	for n := 0; n <= MaxPayloadSize; n++ {
		payload := testPayload(n)
		frames, err := SplitPayload(payload)
		if err != nil {
			t.Fatalf("SplitPayload(%d bytes) failed: %v", n, err)
		}

		var got []byte
		for i, f := range frames {
			out, err := r.Feed(f)
			if err != nil {
				t.Fatalf("Feed frame %d of %d byte payload failed: %v", i, n, err)
			}
			if out != nil && i != len(frames)-1 {
				t.Fatalf("payload completed early at frame %d of %d", i, len(frames))
			}
			if out != nil {
				got = out
			}
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip of %d byte payload: got % X, want % X", n, got, payload)
		}
	}
}

func TestReassembler_SequenceError(t *testing.T) {
	r := NewReassembler()
	frames, _ := SplitPayload(testPayload(20))

	if _, err := r.Feed(frames[0]); err != nil {
		t.Fatalf("first frame rejected: %v", err)
	}
	// Skip frames[1]; the out-of-order index must reset the transfer.
	if _, err := r.Feed(frames[2]); err == nil {
		t.Fatal("out-of-order consecutive frame accepted")
	}

	// A fresh first frame starts clean after the reset.
	payload := testPayload(4)
	frames, _ = SplitPayload(payload)
	got, err := r.Feed(frames[0])
	if err != nil {
		t.Fatalf("first frame after reset rejected: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload after reset = % X, want % X", got, payload)
	}
}

func TestReassembler_StrayConsecutiveFrame(t *testing.T) {
	r := NewReassembler()
	f := Frame{ID: ReceiveCANID}
	f.Data[0] = 0x21
	if _, err := r.Feed(f); err == nil {
		t.Error("consecutive frame without a first frame accepted")
	}
}

func TestReassembler_UnknownMarker(t *testing.T) {
	r := NewReassembler()
	f := Frame{ID: ReceiveCANID}
	f.Data[0] = 0x05
	_, err := r.Feed(f)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if de.Value != 0x05 {
		t.Errorf("DecodeError value = 0x%02X, want 0x05", de.Value)
	}
}

func TestTransmitter_SendBytes(t *testing.T) {
	bus := newRecordingBus()
	tx := NewTransmitter(bus)

	var slept []time.Duration
	tx.sleep = func(d time.Duration) { slept = append(slept, d) }

	payload := testPayload(20)
	if err := tx.SendBytes(payload, 2*time.Millisecond, 10*time.Millisecond); err != nil {
		t.Fatalf("SendBytes failed: %v", err)
	}
	if len(bus.frames) != 3 {
		t.Errorf("sent %d frames, want 3", len(bus.frames))
	}
	if len(slept) != 2 || slept[0] != 2*time.Millisecond || slept[1] != 10*time.Millisecond {
		t.Errorf("sleeps = %v, want [2ms 10ms]", slept)
	}
}

func TestTransmitter_AbandonsOnFailure(t *testing.T) {
	bus := newRecordingBus()
	bus.failAfter = 1
	tx := NewTransmitter(bus)
	tx.sleep = func(time.Duration) {}

	err := tx.SendBytes(testPayload(20), 0, 0)
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BusError", err)
	}
	if be.Frame != 1 {
		t.Errorf("failed frame index = %d, want 1", be.Frame)
	}
	if len(bus.frames) != 1 {
		t.Errorf("frames on the bus after failure = %d, want 1", len(bus.frames))
	}
}
