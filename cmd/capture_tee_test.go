// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/openkombi/kombi/pkg/agw"
	"github.com/openkombi/kombi/pkg/capture"
)

// failingWriter accepts a fixed number of writes, then fails like a full disk.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n >= w.limit {
		return 0, errors.New("no space left on device")
	}
	w.n++
	return len(p), nil
}

func TestCaptureTee_Records(t *testing.T) {
	var buf bytes.Buffer
	tee := &captureTee{
		w:      capture.NewWriter(&buf),
		start:  time.Now(),
		onFail: func(err error) { t.Fatalf("unexpected tee failure: %v", err) },
	}

	frames := []agw.Frame{
		{ID: agw.SendCANID, Data: [8]byte{0x10, 0x09, 0x29, 0x03}},
		{ID: agw.ReceiveCANID, Data: [8]byte{0x10, 0x03, 0x20, 0x03, 0xDA}},
	}
	for _, f := range frames {
		tee.record(f)
	}

	recs, err := capture.ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != len(frames) {
		t.Fatalf("got %d records, want %d", len(recs), len(frames))
	}
	for i, rec := range recs {
		if rec.Frame() != frames[i] {
			t.Errorf("record %d = %+v, want %+v", i, rec.Frame(), frames[i])
		}
	}
}

func TestCaptureTee_StopsAfterFirstWriteError(t *testing.T) {
	fw := &failingWriter{limit: 0}
	failures := 0
	tee := &captureTee{
		w:      capture.NewWriter(fw),
		start:  time.Now(),
		onFail: func(err error) { failures++ },
	}

	f := agw.Frame{ID: agw.SendCANID, Data: [8]byte{0x21, 0x61}}
	for i := 0; i < 5; i++ {
		tee.record(f)
	}

	if failures != 1 {
		t.Errorf("onFail ran %d times, want exactly once", failures)
	}
	if !tee.failed {
		t.Error("tee not marked failed after write error")
	}
	if fw.n != 0 {
		t.Errorf("writer accepted %d writes, want 0", fw.n)
	}
}

func TestCaptureTee_NilRecordsNothing(t *testing.T) {
	var tee *captureTee
	tee.record(agw.Frame{ID: agw.SendCANID})
}
