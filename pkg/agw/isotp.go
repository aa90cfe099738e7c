// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"fmt"
	"time"
)

// Multi-frame segmentation, ISO 15765-2 style with the AGW's vendor header:
// the first frame carries 0x1L LL (12-bit length) plus six payload bytes,
// consecutive frames carry 0x21, 0x22, ... plus seven payload bytes each.
// 6 + 7*7 = 55 bytes in at most eight frames.

// SplitPayload segments a logical payload into outbound CAN frames. It is
// pure: no I/O, no delays. Payloads above MaxPayloadSize are rejected before
// any frame is produced.
func SplitPayload(payload []byte) ([]Frame, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	first := Frame{ID: SendCANID}
	first.Data[0] = firstFrameMarker | byte(len(payload)>>8)
	first.Data[1] = byte(len(payload))
	n := copy(first.Data[2:], payload)
	frames := []Frame{first}

	rest := payload[n:]
	seq := byte(1)
	for len(rest) > 0 {
		cf := Frame{ID: SendCANID}
		cf.Data[0] = consecutiveFrameMarker | seq
		n = copy(cf.Data[1:], rest)
		rest = rest[n:]
		frames = append(frames, cf)
		seq = (seq + 1) & 0x0F
	}
	return frames, nil
}

// ValidatePayload checks a reassembled logical payload: non-empty and the
// trailing checksum byte matches the declared length and content.
func ValidatePayload(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("agw: empty logical payload")
	}
	if !verifyChecksum(payload) {
		return fmt.Errorf("agw: checksum mismatch on %d byte payload", len(payload))
	}
	return nil
}

// Transmitter puts segmented payloads on the bus with the arbitration
// delays that keep us out of the real AGW's way. The sleep function is
// injectable so tests run without waiting.
type Transmitter struct {
	bus   Bus
	sleep func(time.Duration)
}

// NewTransmitter wraps a bus driver.
func NewTransmitter(bus Bus) *Transmitter {
	return &Transmitter{bus: bus, sleep: time.Sleep}
}

// SendBytes segments the payload and emits the frames in strict order,
// sleeping preDelay before the first frame and postDelay after the last.
// A transmit failure abandons the remaining frames; there is no retry
// within the call, the next Update tick re-asserts the page instead.
func (t *Transmitter) SendBytes(payload []byte, preDelay, postDelay time.Duration) error {
	frames, err := SplitPayload(payload)
	if err != nil {
		return err
	}
	if preDelay > 0 {
		t.sleep(preDelay)
	}
	for i, f := range frames {
		if err := t.bus.Send(f); err != nil {
			return &BusError{Frame: i, Err: err}
		}
	}
	if postDelay > 0 {
		t.sleep(postDelay)
	}
	return nil
}

// Reassembler is the inbound mirror of SplitPayload: a state machine fed one
// frame at a time, returning the completed logical payload or nil while a
// transfer is in progress. Garbage resets the state and is reported, the
// next first frame starts clean.
type Reassembler struct {
	buf      []byte
	expected int
	nextSeq  byte
	active   bool
}

// NewReassembler creates an idle reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{buf: make([]byte, 0, MaxPayloadSize)}
}

// Reset drops any transfer in progress.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.expected = 0
	r.nextSeq = 0
	r.active = false
}

// Feed processes one inbound frame. It returns the complete logical payload
// once the declared length has been received, nil while more frames are
// expected, or an error for malformed input.
func (r *Reassembler) Feed(f Frame) ([]byte, error) {
	switch f.Data[0] & 0xF0 {
	case firstFrameMarker:
		length := int(f.Data[0]&0x0F)<<8 | int(f.Data[1])
		if length > MaxPayloadSize {
			r.Reset()
			return nil, ErrPayloadTooLarge
		}
		r.buf = r.buf[:0]
		n := length
		if n > 6 {
			n = 6
		}
		r.buf = append(r.buf, f.Data[2:2+n]...)
		r.expected = length
		r.nextSeq = 1
		r.active = true
		return r.finishIfComplete(), nil

	case consecutiveFrameMarker:
		if !r.active {
			return nil, fmt.Errorf("agw: consecutive frame without a first frame")
		}
		seq := f.Data[0] & 0x0F
		if seq != r.nextSeq {
			r.Reset()
			return nil, fmt.Errorf("agw: sequence index 0x%X, expected 0x%X", seq, r.nextSeq)
		}
		r.nextSeq = (r.nextSeq + 1) & 0x0F
		n := r.expected - len(r.buf)
		if n > 7 {
			n = 7
		}
		r.buf = append(r.buf, f.Data[1:1+n]...)
		return r.finishIfComplete(), nil

	default:
		return nil, &DecodeError{Reason: "unknown segmentation marker", Value: f.Data[0]}
	}
}

func (r *Reassembler) finishIfComplete() []byte {
	if len(r.buf) < r.expected {
		return nil
	}
	out := make([]byte, r.expected)
	copy(out, r.buf)
	r.Reset()
	return out
}
