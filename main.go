// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The kombi authors
//
// Kombi - Mercedes instrument cluster display driver
//
// Drives the text display of a W203/W211 instrument cluster over CAN by
// emulating the factory audio gateway.

package main

import (
	"os"

	"github.com/openkombi/kombi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
