// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
)

var logRawFrames bool

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Display decoded bus traffic in human-readable form",
	Long: `Continuously decode and display AGW display traffic as it arrives.

Frames on the two display identifiers are reassembled into logical payloads,
checksum-verified and decoded: package type, page, symbols and text fields.
With --frames each physical frame is shown as well.

Supports both serial and WebSocket connections.`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().BoolVar(&logRawFrames, "frames", false, "Also print each physical frame")
}

func runLog(cmd *cobra.Command, args []string) error {
	bus, connInfo, cleanup, err := openBus()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Kombi - Bus Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	// One reassembler per direction, the streams interleave on the wire.
	asm := map[uint16]*agw.Reassembler{
		agw.SendCANID:    agw.NewReassembler(),
		agw.ReceiveCANID: agw.NewReassembler(),
	}

	for {
		frames, err := bus.ReadFrames()
		if err != nil {
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for _, f := range frames {
			r, ok := asm[f.ID]
			if !ok {
				continue
			}
			if logRawFrames {
				fmt.Println(agw.FormatFrame(f))
			}
			payload, err := r.Feed(f)
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if payload != nil {
				fmt.Print(agw.FormatPayload(payload))
			}
		}
	}
}
