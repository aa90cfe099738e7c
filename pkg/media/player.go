// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

// Package media tracks playback state for the audio page: track name,
// elapsed and total time, and a marquee view of names too wide for the
// cluster display.
package media

import (
	"fmt"
	"sync"
	"time"

	"github.com/openkombi/kombi/pkg/agw"
)

// scrollSeparator joins the end of a long track name back to its start so
// the marquee wraps without a visual seam.
const scrollSeparator = "   "

// Player models one audio source. It advances elapsed time on Tick while
// playing, and renders a display line that always fits the cluster width.
type Player struct {
	mu sync.Mutex

	track   string
	elapsed int
	total   int
	playing bool

	// marquee offset in bytes into track+separator, 0 when the name fits
	scroll int

	now         func() time.Time
	lastAdvance time.Time
}

// NewPlayer creates a paused player with no track.
func NewPlayer() *Player {
	return &Player{now: time.Now}
}

// SetTrack replaces the track name and rewinds elapsed time and the marquee.
func (p *Player) SetTrack(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = name
	p.elapsed = 0
	p.scroll = 0
	p.lastAdvance = p.now()
}

// Track returns the full track name.
func (p *Player) Track() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// SetTotal sets the track length in seconds.
func (p *Player) SetTotal(seconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	p.total = seconds
}

// SetElapsed seeks to the given position, clamped to the track length.
func (p *Player) SetElapsed(seconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elapsed = p.clampElapsed(seconds)
}

// Elapsed returns the playback position in seconds.
func (p *Player) Elapsed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

// Play resumes time accounting.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		p.playing = true
		p.lastAdvance = p.now()
	}
}

// Pause stops time accounting without losing the position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.advanceLocked()
		p.playing = false
	}
}

// IsPlaying reports whether elapsed time is advancing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Tick advances elapsed time by wall clock while playing and steps the
// marquee one character. Call it at the display refresh rate.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.advanceLocked()
	}
	if !agw.CanFitBodyText(p.track) {
		p.scroll = (p.scroll + 1) % (len(p.track) + len(scrollSeparator))
	}
}

// ProgressPercent returns the playback position as 0 to 100, or 0 when the
// track length is unknown.
func (p *Player) ProgressPercent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return 0
	}
	return p.elapsed * 100 / p.total
}

// PositionText renders "M:SS/M:SS" for the header line.
func (p *Player) PositionText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%s/%s", formatClock(p.elapsed), formatClock(p.total))
}

// DisplayText returns the body line for the current tick: the full track
// name when it fits the display, otherwise the marquee window at the
// current scroll offset. The result always fits the display width.
func (p *Player) DisplayText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if agw.CanFitBodyText(p.track) {
		return p.track
	}
	looped := p.track + scrollSeparator + p.track
	return agw.Truncate(looped[p.scroll:])
}

// advanceLocked folds wall-clock time since the last advance into elapsed
// seconds, keeping sub-second remainders in lastAdvance.
func (p *Player) advanceLocked() {
	now := p.now()
	secs := int(now.Sub(p.lastAdvance) / time.Second)
	if secs <= 0 {
		return
	}
	p.elapsed = p.clampElapsed(p.elapsed + secs)
	p.lastAdvance = p.lastAdvance.Add(time.Duration(secs) * time.Second)
}

func (p *Player) clampElapsed(seconds int) int {
	if seconds < 0 {
		return 0
	}
	if p.total > 0 && seconds > p.total {
		return p.total
	}
	return seconds
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
