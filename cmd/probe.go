// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
)

var probeTimeout int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connectivity by waiting for a cluster status report",
	Long: `Wait for a valid page-status report from the cluster until timeout.

This command connects to the bus and waits for any complete, checksum-valid
payload on the cluster's reply identifier. Garbage frames are ignored.

Exit codes:
  0 - Status report received before timeout
  1 - Timeout reached without a valid report
  2 - Connection error

Useful for checking the adapter wiring and that the cluster is awake.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a report")
}

func runProbe(cmd *cobra.Command, args []string) error {
	bus, connInfo, cleanup, err := openBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer cleanup()

	fmt.Printf("Kombi - Bus Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for a cluster status report...\n\n")

	payloadChan := make(chan []byte, 1)
	errChan := make(chan error, 1)

	go func() {
		r := agw.NewReassembler()
		badPayloads := 0
		for {
			frames, err := bus.ReadFrames()
			if err != nil {
				errChan <- err
				return
			}
			for _, f := range frames {
				if f.ID != agw.ReceiveCANID {
					continue
				}
				payload, err := r.Feed(f)
				if err != nil || payload == nil {
					continue
				}
				if agw.ValidatePayload(payload) != nil {
					badPayloads++
					continue
				}
				if badPayloads > 0 || bus.BadLines() > 0 {
					fmt.Printf("(skipped %d invalid payloads, %d garbage adapter lines before sync)\n",
						badPayloads, bus.BadLines())
				}
				payloadChan <- payload
				return
			}
		}
	}()

	select {
	case payload := <-payloadChan:
		fmt.Printf("SUCCESS: Received valid payload\n")
		fmt.Print(agw.FormatPayload(payload))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid report within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
