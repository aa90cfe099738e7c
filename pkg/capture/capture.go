// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

// Package capture records and replays bus traffic. The native format is a
// CBOR sequence, one record per frame with a microsecond timestamp, compact
// enough to log hours of cluster traffic. The package also reads the older
// text dumps produced by early logging scripts so existing captures stay
// usable.
package capture

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/openkombi/kombi/pkg/agw"
)

// Record is one captured frame. Timestamps are microseconds from an
// arbitrary epoch; replay only uses their differences.
type Record struct {
	TimestampUs int64  `cbor:"1,keyasint"`
	ID          uint16 `cbor:"2,keyasint"`
	Data        []byte `cbor:"3,keyasint"`
}

// Frame converts the record back to a bus frame. Dumps may hold short
// frames, the remaining bytes stay zero.
func (r Record) Frame() agw.Frame {
	f := agw.Frame{ID: r.ID}
	copy(f.Data[:], r.Data)
	return f
}

// Writer appends records to a CBOR capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter starts a capture on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one frame with the given timestamp.
func (w *Writer) Write(timestampUs int64, f agw.Frame) error {
	rec := Record{TimestampUs: timestampUs, ID: f.ID, Data: f.Data[:]}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("capture: write record: %w", err)
	}
	return nil
}

// Reader iterates a CBOR capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads a capture from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: read record: %w", err)
	}
	if len(rec.Data) > 8 {
		return Record{}, fmt.Errorf("capture: record data %d bytes, frames carry at most 8", len(rec.Data))
	}
	return rec, nil
}

// ReadAll drains a CBOR capture into memory.
func ReadAll(r io.Reader) ([]Record, error) {
	cr := NewReader(r)
	var recs []Record
	for {
		rec, err := cr.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

// ParseTextDump reads the legacy dump format, one frame per line:
//
//	Time=2021-04-01 16:45:12.703,X:ID=464:LEN=8:0x10:0x09:0x29:0x03:0x0A:0x17:0x02:0x42
//
// Identifiers are decimal, data bytes hex. Some dumps carry a raw Unix
// timestamp instead of the datetime form; both are accepted. Blank lines
// are skipped; malformed lines fail the parse with their line number.
func ParseTextDump(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var recs []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseTextLine(line)
		if err != nil {
			return nil, fmt.Errorf("capture: line %d: %w", lineNo, err)
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("capture: read dump: %w", err)
	}
	return recs, nil
}

func parseTextLine(line string) (Record, error) {
	head, rest, ok := strings.Cut(line, ",")
	if !ok {
		return Record{}, fmt.Errorf("no timestamp separator in %q", line)
	}
	tsStr, ok := strings.CutPrefix(head, "Time=")
	if !ok {
		return Record{}, fmt.Errorf("no Time= prefix in %q", head)
	}
	tsUs, err := parseDumpTime(tsStr)
	if err != nil {
		return Record{}, err
	}

	fields := strings.Split(rest, ":")
	if len(fields) < 3 {
		return Record{}, fmt.Errorf("short frame description %q", rest)
	}
	idStr, ok := strings.CutPrefix(fields[1], "ID=")
	if !ok {
		return Record{}, fmt.Errorf("no ID= field in %q", rest)
	}
	id, err := strconv.ParseUint(idStr, 10, 16)
	if err != nil || id > 0x7FF {
		return Record{}, fmt.Errorf("bad identifier %q", idStr)
	}
	lenStr, ok := strings.CutPrefix(fields[2], "LEN=")
	if !ok {
		return Record{}, fmt.Errorf("no LEN= field in %q", rest)
	}
	dlc, err := strconv.ParseUint(lenStr, 10, 8)
	if err != nil || dlc > 8 {
		return Record{}, fmt.Errorf("bad length %q", lenStr)
	}
	bytesHex := fields[3:]
	if len(bytesHex) != int(dlc) {
		return Record{}, fmt.Errorf("length %d does not match %d data fields", dlc, len(bytesHex))
	}

	data := make([]byte, dlc)
	for i, h := range bytesHex {
		h = strings.TrimPrefix(h, "0x")
		b, err := strconv.ParseUint(h, 16, 8)
		if err != nil {
			return Record{}, fmt.Errorf("bad data byte %q: %w", bytesHex[i], err)
		}
		data[i] = byte(b)
	}
	return Record{
		TimestampUs: tsUs,
		ID:          uint16(id),
		Data:        data,
	}, nil
}

// dumpTimeLayout matches the datetime stamps the original logging scripts
// wrote. time.Parse accepts the trailing fractional seconds on its own.
const dumpTimeLayout = "2006-01-02 15:04:05"

func parseDumpTime(s string) (int64, error) {
	if t, err := time.Parse(dumpTimeLayout, s); err == nil {
		return t.UnixMicro(), nil
	}
	ts, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return int64(math.Round(ts * 1e6)), nil
}
