// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"fmt"
	"time"
)

// Statistics tracks protocol traffic and error counters for one channel.
type Statistics struct {
	StartTime time.Time

	FramesIn  uint64 // frames seen on 0x1D0
	FramesOut uint64 // frames emitted on 0x1A4
	Payloads  uint64 // logical payloads reassembled and verified

	ChecksumErrors uint64
	DecodeErrors   uint64 // bad markers, sequence gaps, unknown codes
	Overrides      uint64 // AGW stole the display
}

// NewStatistics creates a tracker starting now.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// FrameRate returns inbound+outbound frames per second since start.
func (s *Statistics) FrameRate() float64 {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.FramesIn+s.FramesOut) / elapsed
}

// String returns a formatted summary block.
func (s *Statistics) String() string {
	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	result += fmt.Sprintf("Frames In:       %8d\n", s.FramesIn)
	result += fmt.Sprintf("Frames Out:      %8d\n", s.FramesOut)
	result += fmt.Sprintf("Payloads:        %8d\n", s.Payloads)
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d\n", s.ChecksumErrors)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.Overrides > 0 {
		result += fmt.Sprintf("AGW Overrides:   %8d\n", s.Overrides)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate())
	result += "================================\n"
	return result
}

// Reset zeroes all counters and restarts the clock.
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
