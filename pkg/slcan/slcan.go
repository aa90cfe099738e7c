// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

// Package slcan speaks the Lawicel ASCII framing used by common USB CAN
// adapters: one command per carriage-return-terminated line, data frames as
// 't' followed by a hex identifier, length and payload. Only 11-bit data
// frames are produced and consumed; everything the cluster speaks fits them.
package slcan

import (
	"fmt"
	"io"
	"sync"

	"github.com/openkombi/kombi/pkg/agw"
)

// Standard Lawicel bitrate codes for the S command. The W203 interior bus
// runs at 83.3 kbit, which has no standard code; adapters that support it
// map their closest code, so the code stays configurable.
const (
	Bitrate10k  = 0
	Bitrate20k  = 1
	Bitrate50k  = 2
	Bitrate100k = 3
	Bitrate125k = 4
	Bitrate250k = 5
	Bitrate500k = 6
	Bitrate800k = 7
	Bitrate1M   = 8
)

// maxLineBytes bounds decoder buffering: a 't' line with an 8 byte frame is
// 22 bytes, anything far past that is garbage.
const maxLineBytes = 64

const (
	cr   = '\r'
	bell = 0x07 // adapter NAK
)

// Marshal renders one outbound data frame as a Lawicel line.
func Marshal(f agw.Frame) []byte {
	out := make([]byte, 0, 22)
	out = append(out, 't')
	out = appendHex(out, byte(f.ID>>8)&0x07)
	out = appendHex(out, byte(f.ID>>4)&0x0F)
	out = appendHex(out, byte(f.ID)&0x0F)
	out = appendHex(out, 8)
	for _, b := range f.Data {
		out = appendHex(out, b>>4)
		out = appendHex(out, b&0x0F)
	}
	return append(out, cr)
}

func appendHex(dst []byte, nibble byte) []byte {
	const digits = "0123456789ABCDEF"
	return append(dst, digits[nibble&0x0F])
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// parseLine decodes one complete line without its terminator. It returns
// the frame and true for an 11-bit data frame, false for any other adapter
// response (acks, version strings, 29-bit traffic we do not use).
func parseLine(line []byte) (agw.Frame, bool, error) {
	if len(line) == 0 || line[0] != 't' {
		return agw.Frame{}, false, nil
	}
	if len(line) < 5 {
		return agw.Frame{}, false, fmt.Errorf("slcan: truncated frame line %q", line)
	}
	var id uint16
	for _, c := range line[1:4] {
		n, ok := nibble(c)
		if !ok {
			return agw.Frame{}, false, fmt.Errorf("slcan: bad identifier digit %q", c)
		}
		id = id<<4 | uint16(n)
	}
	dlc, ok := nibble(line[4])
	if !ok || dlc > 8 {
		return agw.Frame{}, false, fmt.Errorf("slcan: bad length digit %q", line[4])
	}
	if len(line) != 5+int(dlc)*2 {
		return agw.Frame{}, false, fmt.Errorf("slcan: length %d does not match line %q", dlc, line)
	}

	f := agw.Frame{ID: id}
	for i := 0; i < int(dlc); i++ {
		hi, okHi := nibble(line[5+i*2])
		lo, okLo := nibble(line[6+i*2])
		if !okHi || !okLo {
			return agw.Frame{}, false, fmt.Errorf("slcan: bad data digit in %q", line)
		}
		f.Data[i] = hi<<4 | lo
	}
	return f, true, nil
}

// Decoder is an incremental line reassembler for the adapter's byte stream.
// Feed it reads in any chunking; complete data frames come out, adapter
// acks and noise are skipped, malformed lines are dropped after being
// counted so one glitch cannot stall the stream.
type Decoder struct {
	buf      []byte
	BadLines int
}

// Feed appends stream bytes and returns every data frame completed by them.
func (d *Decoder) Feed(p []byte) []agw.Frame {
	var frames []agw.Frame
	for _, c := range p {
		if c == cr || c == '\n' || c == bell {
			if len(d.buf) > 0 {
				f, ok, err := parseLine(d.buf)
				if err != nil {
					d.BadLines++
				} else if ok {
					frames = append(frames, f)
				}
				d.buf = d.buf[:0]
			}
			continue
		}
		if len(d.buf) >= maxLineBytes {
			d.BadLines++
			d.buf = d.buf[:0]
		}
		d.buf = append(d.buf, c)
	}
	return frames
}

// Adapter binds the codec to an open byte stream (a serial port or any
// bridged connection) and implements the bus interface for outbound frames.
type Adapter struct {
	mu sync.Mutex
	rw io.ReadWriter

	dec     Decoder
	readBuf [256]byte
}

// NewAdapter wraps an open adapter stream. Call Open before sending.
func NewAdapter(rw io.ReadWriter) *Adapter {
	return &Adapter{rw: rw}
}

// Open resets the adapter, programs the bitrate code and opens the channel.
func (a *Adapter) Open(bitrateCode int) error {
	if bitrateCode < Bitrate10k || bitrateCode > Bitrate1M {
		return fmt.Errorf("slcan: bitrate code %d out of range", bitrateCode)
	}
	// Leading returns flush a half-typed command left in the adapter.
	cmds := fmt.Sprintf("\r\rC\rS%d\rO\r", bitrateCode)
	return a.write([]byte(cmds))
}

// Close closes the CAN channel; the serial stream itself stays open for the
// caller to close.
func (a *Adapter) Close() error {
	return a.write([]byte("C\r"))
}

// Send puts one frame on the bus.
func (a *Adapter) Send(f agw.Frame) error {
	return a.write(Marshal(f))
}

func (a *Adapter) write(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.rw.Write(p)
	return err
}

// ReadFrames blocks on the stream and returns the next batch of decoded
// frames. It returns the stream's error on failure, io.EOF included.
func (a *Adapter) ReadFrames() ([]agw.Frame, error) {
	for {
		n, err := a.rw.Read(a.readBuf[:])
		if n > 0 {
			if frames := a.dec.Feed(a.readBuf[:n]); len(frames) > 0 {
				return frames, err
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// BadLines reports how many malformed lines the decoder dropped.
func (a *Adapter) BadLines() int {
	return a.dec.BadLines
}

var _ agw.Bus = (*Adapter)(nil)
