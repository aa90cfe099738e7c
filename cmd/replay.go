// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
	"github.com/openkombi/kombi/pkg/capture"
)

var (
	replaySpeed  float64
	replayLoop   bool
	replayFormat string
	replayDryRun bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture file>",
	Short: "Replay a traffic capture onto the bus",
	Long: `Replay a recorded capture onto the bus with its original timing.

Reads the CBOR format written by "run" and "monitor", or the older text dump
format (--format text, assumed for .txt and .log files). Only frames on the
outbound display identifier are replayed; the cluster's own replies in the
capture are skipped.

With --dry-run the decoded traffic is printed instead of transmitted, which
works without any connection.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed factor")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Restart from the beginning at the end")
	replayCmd.Flags().StringVar(&replayFormat, "format", "auto", "Capture format (auto, cbor, text)")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "Print frames instead of sending them")
}

func loadCapture(path string) ([]capture.Record, error) {
	format := replayFormat
	if format == "auto" {
		switch filepath.Ext(path) {
		case ".txt", ".log":
			format = "text"
		default:
			format = "cbor"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch format {
	case "text":
		return capture.ParseTextDump(f)
	case "cbor":
		return capture.ReadAll(f)
	default:
		return nil, fmt.Errorf("unknown format %q (auto, cbor or text)", format)
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replaySpeed <= 0 {
		return fmt.Errorf("--speed must be positive")
	}

	recs, err := loadCapture(args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("capture %s holds no frames", args[0])
	}

	var send agw.Bus
	if replayDryRun {
		send = agw.BusFunc(func(f agw.Frame) error {
			fmt.Println(agw.FormatFrame(f))
			return nil
		})
	} else {
		bus, connInfo, cleanup, err := openBus()
		if err != nil {
			return err
		}
		defer cleanup()
		fmt.Printf("Kombi - Replay\n")
		fmt.Printf("Connection: %s\n", connInfo)
		send = bus
	}

	fmt.Printf("Replaying %d frames from %s (speed %.2fx)\n\n", len(recs), args[0], replaySpeed)

	for {
		sent := 0
		prev := recs[0].TimestampUs
		for _, rec := range recs {
			if gap := rec.TimestampUs - prev; gap > 0 {
				time.Sleep(time.Duration(float64(gap) / replaySpeed * float64(time.Microsecond)))
			}
			prev = rec.TimestampUs

			if rec.ID != agw.SendCANID {
				continue
			}
			if err := send.Send(rec.Frame()); err != nil {
				return fmt.Errorf("send failed after %d frames: %v", sent, err)
			}
			sent++
		}
		fmt.Printf("Replayed %d frames\n", sent)
		if !replayLoop {
			return nil
		}
	}
}
