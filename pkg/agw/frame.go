// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

package agw

import (
	"fmt"
	"strings"
)

// Frame is one physical CAN frame: an 11-bit identifier and exactly 8 data
// bytes. Shorter logical content is zero padded; the cluster expects DLC 8
// on both directions of this channel.
type Frame struct {
	ID   uint16
	Data [8]byte
}

// String renders the frame as "ID# B0 B1 ... B7".
func (f Frame) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "0x%03X#", f.ID)
	for _, b := range f.Data {
		fmt.Fprintf(&sb, " %02X", b)
	}
	return sb.String()
}

// Bus is the transmit side of a CAN driver. Receive is push based: transport
// adapters run their own read loop and hand inbound frames to
// Display.ProcessResponse.
type Bus interface {
	Send(Frame) error
}

// BusFunc adapts a plain function to the Bus interface.
type BusFunc func(Frame) error

// Send implements Bus.
func (fn BusFunc) Send(f Frame) error { return fn(f) }
