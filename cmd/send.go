// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openkombi/kombi/pkg/agw"
	"github.com/openkombi/kombi/pkg/config"
)

var (
	sendPage   string
	sendCenter bool
	sendUpper  string
	sendLower  string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single display command",
	Long: `Send one display command and exit.

Useful for scripting and for poking at the protocol by hand. The page must
have been initialized (here or by a running driver) before header or body
text renders; "send init" does both in one step.`,
}

var sendInitCmd = &cobra.Command{
	Use:   "init <header text>",
	Short: "Initialize a page with header text and symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSendInit,
}

var sendHeaderCmd = &cobra.Command{
	Use:   "header <text>",
	Short: "Replace the header line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSendHeader,
}

var sendBodyCmd = &cobra.Command{
	Use:   "body <text>",
	Short: "Replace the body line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSendBody,
}

var sendTelCmd = &cobra.Command{
	Use:   "tel <line1> <line2> <line3> <line4>",
	Short: "Replace all four telephone-page body lines",
	Args:  cobra.ExactArgs(4),
	RunE:  runSendTel,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.AddCommand(sendInitCmd, sendHeaderCmd, sendBodyCmd, sendTelCmd)

	sendCmd.PersistentFlags().StringVar(&sendPage, "page", "audio", "Target page (audio, telephone, other)")
	sendCmd.PersistentFlags().BoolVar(&sendCenter, "center", true, "Center the text")
	sendInitCmd.Flags().StringVar(&sendUpper, "upper", "none", "Symbol above the body line")
	sendInitCmd.Flags().StringVar(&sendLower, "lower", "none", "Symbol below the body line")
}

// sendOneShot opens the bus, runs fn against a fresh display and closes.
func sendOneShot(texts []string, fn func(*agw.Display, agw.Page) error) error {
	for _, t := range texts {
		if err := agw.ValidateText(t); err != nil {
			return fmt.Errorf("%q: %w", t, err)
		}
	}

	cfg := config.Config{Page: sendPage, UpperSymbol: sendUpper, LowerSymbol: sendLower}
	page, err := cfg.PageCode()
	if err != nil {
		return err
	}

	bus, _, cleanup, err := openBus()
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(agw.NewDisplay(bus), page)
}

func runSendInit(cmd *cobra.Command, args []string) error {
	cfg := config.Config{Page: sendPage, UpperSymbol: sendUpper, LowerSymbol: sendLower}
	upper, lower, err := cfg.Symbols()
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	return sendOneShot([]string{text}, func(d *agw.Display, page agw.Page) error {
		return d.InitPage(page, text, sendCenter, upper, lower)
	})
}

func runSendHeader(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	return sendOneShot([]string{text}, func(d *agw.Display, page agw.Page) error {
		return d.SetHeader(page, text, sendCenter)
	})
}

func runSendBody(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if !agw.CanFitBodyText(text) {
		fmt.Printf("Warning: %q is wider than the display and will be clipped\n", text)
	}
	return sendOneShot([]string{text}, func(d *agw.Display, page agw.Page) error {
		return d.SetBody(page, text, sendCenter)
	})
}

func runSendTel(cmd *cobra.Command, args []string) error {
	sendPage = "telephone"
	return sendOneShot(args, func(d *agw.Display, page agw.Page) error {
		// SetBodyTel requires the telephone page to be current; a one-shot
		// process has no inbound state, so establish it first.
		if err := d.InitPage(page, "", sendCenter, agw.SymbolNone, agw.SymbolNone); err != nil {
			return err
		}
		return d.SetBodyTel(args[0], args[1], args[2], args[3])
	})
}
