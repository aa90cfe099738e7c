// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"sync"
	"time"
)

// Default arbitration delays around a multi-frame burst. The real AGW
// transmits on the same identifiers whenever it pleases; spacing our bursts
// is the only collision mitigation available.
const (
	DefaultPreDelay  = 2 * time.Millisecond
	DefaultPostDelay = 10 * time.Millisecond
)

// Display drives the text area of one instrument cluster over one bus.
// It owns the current-page state: outbound commands update it
// optimistically, inbound page-status reports correct it authoritatively.
// All state lives on the instance, so independent clusters on independent
// buses can coexist in one process.
type Display struct {
	mu sync.Mutex

	tx    *Transmitter
	rx    *Reassembler
	stats *Statistics

	currentPage Page
	needsInit   bool
	configured  bool

	// Last commanded content, re-asserted by Update after an AGW override.
	desiredPage Page
	header      string
	body        string
	center      bool
	upper       Symbol
	lower       Symbol

	preDelay  time.Duration
	postDelay time.Duration
}

// Option configures a Display.
type Option func(*Display)

// WithDelays overrides the pre/post frame-burst delays.
func WithDelays(pre, post time.Duration) Option {
	return func(d *Display) {
		d.preDelay = pre
		d.postDelay = post
	}
}

// WithStatistics attaches a shared statistics tracker.
func WithStatistics(s *Statistics) Option {
	return func(d *Display) { d.stats = s }
}

// NewDisplay creates a display driver on the given bus.
func NewDisplay(bus Bus, opts ...Option) *Display {
	d := &Display{
		tx:          NewTransmitter(bus),
		rx:          NewReassembler(),
		stats:       NewStatistics(),
		currentPage: PageOther,
		preDelay:    DefaultPreDelay,
		postDelay:   DefaultPostDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CurrentPage returns the page the cluster was last known to show.
func (d *Display) CurrentPage() Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentPage
}

// NeedsInit reports whether the next Update will re-assert the page.
func (d *Display) NeedsInit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.needsInit
}

// Stats returns the statistics tracker.
func (d *Display) Stats() *Statistics { return d.stats }

// InitPage sends Package 24 to establish the page layout: header text,
// justification and the symbols above and below the body line. It must run
// once per page activation before SetHeader/SetBody are meaningful, and it
// records the page as current optimistically.
func (d *Display) InitPage(page Page, header string, center bool, upper, lower Symbol) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.desiredPage = page
	d.header = header
	d.center = center
	d.upper = upper
	d.lower = lower
	d.configured = true
	d.needsInit = true

	if err := d.send(buildInitPayload(page, header, center, upper, lower)); err != nil {
		return err
	}
	d.currentPage = page
	d.needsInit = false
	return nil
}

// SetHeader sends Package 29, replacing the header text only.
func (d *Display) SetHeader(page Page, text string, center bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page == d.desiredPage {
		d.header = text
		d.center = center
	}
	return d.send(buildHeaderPayload(page, text, center))
}

// SetBody sends Package 26 with the single visible body line.
func (d *Display) SetBody(page Page, text string, center bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page == d.desiredPage {
		d.body = text
	}
	return d.send(buildBodyPayload(page, text, center))
}

// SetBodyTel sends the four-line telephone body. Only the telephone page
// renders more than one line; calling this while the cluster is on another
// page is a caller contract violation and is rejected before any I/O.
func (d *Display) SetBodyTel(line1, line2, line3, line4 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.currentPage != PageTelephone {
		return ErrPageMismatch
	}
	payload, err := buildBodyTelPayload([4]string{line1, line2, line3, line4})
	if err != nil {
		return err
	}
	return d.send(payload)
}

// Update is the periodic re-assertion tick. If an inbound report showed the
// AGW stealing the display, the last commanded page is re-initialized and
// its header and body are re-sent. A bus failure leaves needsInit set, so
// the following tick tries again.
func (d *Display) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.configured || !d.needsInit {
		return nil
	}
	if err := d.send(buildInitPayload(d.desiredPage, d.header, d.center, d.upper, d.lower)); err != nil {
		return err
	}
	if err := d.send(buildHeaderPayload(d.desiredPage, d.header, d.center)); err != nil {
		return err
	}
	if d.body != "" {
		if err := d.send(buildBodyPayload(d.desiredPage, d.body, d.center)); err != nil {
			return err
		}
	}
	d.currentPage = d.desiredPage
	d.needsInit = false
	return nil
}

// ProcessResponse feeds one inbound frame from the cluster through the
// reassembler and applies any completed page-status report. Frames on other
// identifiers are ignored. When the reported page differs from the page we
// believe is showing, the tracker adopts reality and schedules a re-init.
func (d *Display) ProcessResponse(f Frame) error {
	if f.ID != ReceiveCANID {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.FramesIn++
	payload, err := d.rx.Feed(f)
	if err != nil {
		d.stats.DecodeErrors++
		return err
	}
	if payload == nil {
		return nil
	}
	if err := ValidatePayload(payload); err != nil {
		d.stats.ChecksumErrors++
		return err
	}
	d.stats.Payloads++

	body := payload[:len(payload)-1]
	if len(body) < 2 {
		d.stats.DecodeErrors++
		return &DecodeError{Reason: "page status payload too short", Value: byte(len(body))}
	}
	switch body[0] {
	case PkgPageStatus:
		page, err := PageFromWire(body[1])
		if err != nil {
			d.stats.DecodeErrors++
			return err
		}
		if page != d.currentPage {
			d.currentPage = page
			if d.configured && page != d.desiredPage {
				d.needsInit = true
				d.stats.Overrides++
			}
		}
		if d.configured && page == d.desiredPage {
			d.needsInit = false
		}
		return nil
	default:
		d.stats.DecodeErrors++
		return &DecodeError{Reason: "unknown package id", Value: body[0]}
	}
}

// send segments and transmits an already sealed payload with the configured
// delays. Callers hold d.mu.
func (d *Display) send(payload []byte) error {
	err := d.tx.SendBytes(payload, d.preDelay, d.postDelay)
	if err == nil {
		// first frame carries 6 bytes, each consecutive frame 7
		d.stats.FramesOut += uint64(1 + len(payload)/7)
	}
	return err
}
