// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
	"github.com/openkombi/kombi/pkg/capture"
	"github.com/openkombi/kombi/pkg/config"
	"github.com/openkombi/kombi/pkg/media"
	"github.com/openkombi/kombi/pkg/slcan"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Claim a cluster page and keep driving it",
	Long: `Claim one page of the cluster display and keep it alive.

Initializes the configured page, then loops: the media body line scrolls and
its clock advances, inbound status reports are applied, and whenever the
factory AGW steals the display the page is re-asserted on the next tick.

Without --config a default audio page is driven. The config file selects the
page, header layout, media source and an optional traffic capture; see the
repository's example config for the full format.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "YAML configuration file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.Load(runConfigPath)
		if err != nil {
			return err
		}
	}
	page, err := cfg.PageCode()
	if err != nil {
		return err
	}
	upper, lower, err := cfg.Symbols()
	if err != nil {
		return err
	}

	bus, connInfo, cleanup, err := openBus()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Kombi - Display Driver\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Page: %s  Header: %q\n", page, cfg.Header)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	var sendBus agw.Bus = bus
	var tee *captureTee
	if cfg.Capture != "" {
		f, err := os.Create(cfg.Capture)
		if err != nil {
			return fmt.Errorf("open capture file: %v", err)
		}
		defer f.Close()
		tee = &captureTee{
			w:     capture.NewWriter(f),
			start: time.Now(),
			onFail: func(err error) {
				log.Printf("capture stopped: %v", err)
			},
		}
		sendBus = capturingBus{bus: bus, tee: tee}
	}

	display := agw.NewDisplay(sendBus)
	player := media.NewPlayer()
	player.SetTrack(cfg.Media.Track)
	player.SetTotal(cfg.Media.TotalSeconds)
	if cfg.Media.Autoplay {
		player.Play()
	}

	if err := display.InitPage(page, cfg.Header, cfg.Center, upper, lower); err != nil {
		return fmt.Errorf("init page: %v", err)
	}
	if cfg.Media.Track != "" {
		if err := display.SetBody(page, player.DisplayText(), cfg.Center); err != nil {
			return fmt.Errorf("set body: %v", err)
		}
	}

	// Inbound frames from the cluster
	frameChan := make(chan agw.Frame, 16)
	readErrChan := make(chan error, 1)
	go func() {
		for {
			frames, err := bus.ReadFrames()
			if err != nil {
				readErrChan <- err
				return
			}
			for _, f := range frames {
				frameChan <- f
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.UpdateInterval.Std())
	defer ticker.Stop()

	lastBody := ""
	for {
		select {
		case <-ticker.C:
			player.Tick()
			if err := display.Update(); err != nil {
				log.Printf("page re-assert failed: %v", err)
				continue
			}
			if cfg.Media.Track != "" {
				if body := player.DisplayText(); body != lastBody {
					if err := display.SetBody(page, body, cfg.Center); err != nil {
						log.Printf("body update failed: %v", err)
						continue
					}
					lastBody = body
				}
			}

		case f := <-frameChan:
			tee.record(f)
			if err := display.ProcessResponse(f); err != nil {
				log.Printf("inbound frame: %v", err)
			}

		case err := <-readErrChan:
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			return fmt.Errorf("read: %v", err)

		case <-sigChan:
			fmt.Printf("\n%s\n", display.Stats())
			return nil
		}
	}
}

// captureTee writes frames to a capture stream until the first write
// failure, then reports it once and stops recording so a full disk does
// not stall or spam live traffic. A nil tee records nothing.
type captureTee struct {
	w      *capture.Writer
	start  time.Time
	failed bool
	onFail func(error)
}

func (t *captureTee) record(f agw.Frame) {
	if t == nil || t.failed {
		return
	}
	if err := t.w.Write(time.Since(t.start).Microseconds(), f); err != nil {
		t.failed = true
		t.onFail(err)
	}
}

// capturingBus tees outbound frames into a capture file.
type capturingBus struct {
	bus *slcan.Adapter
	tee *captureTee
}

func (c capturingBus) Send(f agw.Frame) error {
	c.tee.record(f)
	return c.bus.Send(f)
}
