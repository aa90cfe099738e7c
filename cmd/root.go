// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// CAN adapter flags
	bitrateCode int
)

var rootCmd = &cobra.Command{
	Use:   "kombi",
	Short: "Mercedes instrument cluster display driver",
	Long: `Kombi - drive the text display of a Mercedes W203/W211 instrument
cluster by speaking the audio gateway's CAN protocol.

Talks to the interior bus through an SLCAN adapter on a serial port, or
through the same adapter bridged over a WebSocket.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the KOMBI_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.

The interior bus runs at 83.3 kbit, which has no standard SLCAN code;
--bitrate-code selects whichever code your adapter firmware maps to it.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// CAN adapter flags
	rootCmd.PersistentFlags().IntVar(&bitrateCode, "bitrate-code", 4, "SLCAN bitrate code for the S command")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
