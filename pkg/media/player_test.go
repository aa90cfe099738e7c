// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package media

import (
	"testing"
	"time"

	"github.com/openkombi/kombi/pkg/agw"
)

// fakeClock steps time manually so tests never sleep.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPlayer() (*Player, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewPlayer()
	p.now = clock.now
	return p, clock
}

func TestPlayer_ElapsedAdvancesOnlyWhilePlaying(t *testing.T) {
	p, clock := newTestPlayer()
	p.SetTrack("Song")
	p.SetTotal(180)

	clock.advance(5 * time.Second)
	p.Tick()
	if got := p.Elapsed(); got != 0 {
		t.Errorf("paused elapsed = %d, want 0", got)
	}

	p.Play()
	clock.advance(5 * time.Second)
	p.Tick()
	if got := p.Elapsed(); got != 5 {
		t.Errorf("playing elapsed = %d, want 5", got)
	}

	p.Pause()
	clock.advance(30 * time.Second)
	p.Tick()
	if got := p.Elapsed(); got != 5 {
		t.Errorf("elapsed after pause = %d, want 5", got)
	}
}

func TestPlayer_SubSecondRemainderKept(t *testing.T) {
	p, clock := newTestPlayer()
	p.SetTrack("Song")
	p.Play()

	clock.advance(1500 * time.Millisecond)
	p.Tick()
	if got := p.Elapsed(); got != 1 {
		t.Fatalf("elapsed = %d, want 1", got)
	}
	clock.advance(500 * time.Millisecond)
	p.Tick()
	if got := p.Elapsed(); got != 2 {
		t.Errorf("elapsed = %d, want 2 after the remainder completes", got)
	}
}

func TestPlayer_ElapsedClampedToTotal(t *testing.T) {
	p, clock := newTestPlayer()
	p.SetTrack("Song")
	p.SetTotal(10)
	p.Play()

	clock.advance(time.Minute)
	p.Tick()
	if got := p.Elapsed(); got != 10 {
		t.Errorf("elapsed = %d, want clamp at 10", got)
	}
	if got := p.ProgressPercent(); got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}

	p.SetElapsed(-3)
	if got := p.Elapsed(); got != 0 {
		t.Errorf("negative seek gave %d, want 0", got)
	}
}

func TestPlayer_ProgressPercent(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetTotal(200)
	p.SetElapsed(50)
	if got := p.ProgressPercent(); got != 25 {
		t.Errorf("progress = %d, want 25", got)
	}

	p.SetTotal(0)
	if got := p.ProgressPercent(); got != 0 {
		t.Errorf("progress with unknown length = %d, want 0", got)
	}
}

func TestPlayer_PositionText(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetTotal(245)
	p.SetElapsed(65)
	if got := p.PositionText(); got != "1:05/4:05" {
		t.Errorf("position = %q, want 1:05/4:05", got)
	}
}

func TestPlayer_DisplayTextShortTrack(t *testing.T) {
	p, _ := newTestPlayer()
	p.SetTrack("abc")

	for i := 0; i < 10; i++ {
		p.Tick()
	}
	if got := p.DisplayText(); got != "abc" {
		t.Errorf("short track scrolled: %q", got)
	}
}

func TestPlayer_DisplayTextMarquee(t *testing.T) {
	p, _ := newTestPlayer()
	track := "abcdefghijklmnopqrst" // far over 56 px
	p.SetTrack(track)

	first := p.DisplayText()
	if !agw.CanFitBodyText(first) {
		t.Fatalf("marquee window %q wider than the display", first)
	}

	p.Tick()
	second := p.DisplayText()
	if !agw.CanFitBodyText(second) {
		t.Fatalf("marquee window %q wider than the display", second)
	}

	// The window must wrap back to the start within one full cycle.
	cycle := len(track) + len(scrollSeparator)
	for i := 1; i < cycle; i++ {
		p.Tick()
		if got := p.DisplayText(); !agw.CanFitBodyText(got) {
			t.Fatalf("tick %d window %q wider than the display", i, got)
		}
	}
	if got := p.DisplayText(); got != first {
		t.Errorf("after a full cycle window = %q, want %q", got, first)
	}
}

func TestPlayer_SetTrackRewinds(t *testing.T) {
	p, clock := newTestPlayer()
	p.SetTrack("one")
	p.SetTotal(60)
	p.Play()
	clock.advance(10 * time.Second)
	p.Tick()

	p.SetTrack("two")
	if got := p.Elapsed(); got != 0 {
		t.Errorf("elapsed after track change = %d, want 0", got)
	}
	if !p.IsPlaying() {
		t.Error("track change should not pause playback")
	}
}
