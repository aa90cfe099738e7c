// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The kombi authors

// Package config loads the YAML file driving the run command: which page to
// claim, its header layout, and the media source shown on the body line.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openkombi/kombi/pkg/agw"
)

// Duration wraps time.Duration with YAML decoding from strings like "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Media configures the audio-page body line.
type Media struct {
	Track        string `yaml:"track"`
	TotalSeconds int    `yaml:"total_seconds"`
	Autoplay     bool   `yaml:"autoplay"`
}

// Config is the run command's file format.
type Config struct {
	Page        string `yaml:"page"`
	Header      string `yaml:"header"`
	Center      bool   `yaml:"center"`
	UpperSymbol string `yaml:"upper_symbol"`
	LowerSymbol string `yaml:"lower_symbol"`

	// How often the driver re-asserts the page against AGW overrides.
	UpdateInterval Duration `yaml:"update_interval"`

	Media Media `yaml:"media"`

	// Optional path for a CBOR capture of all traffic.
	Capture string `yaml:"capture"`
}

// Default returns the configuration used when no file is given: claim the
// audio page with a centered header.
func Default() *Config {
	return &Config{
		Page:           "audio",
		Header:         "BT Audio",
		Center:         true,
		UpperSymbol:    "none",
		LowerSymbol:    "none",
		UpdateInterval: Duration(time.Second),
	}
}

// Load reads and validates a configuration file. Unknown keys are rejected,
// a typo in a field name should not silently fall back to a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks all enumerated fields and ranges.
func (c *Config) Validate() error {
	if _, err := c.PageCode(); err != nil {
		return err
	}
	if _, err := symbolCode(c.UpperSymbol); err != nil {
		return err
	}
	if _, err := symbolCode(c.LowerSymbol); err != nil {
		return err
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %s", c.UpdateInterval)
	}
	if c.Media.TotalSeconds < 0 {
		return fmt.Errorf("media.total_seconds must not be negative, got %d", c.Media.TotalSeconds)
	}
	return nil
}

// PageCode maps the page name to its wire code.
func (c *Config) PageCode() (agw.Page, error) {
	switch strings.ToLower(c.Page) {
	case "audio":
		return agw.PageAudio, nil
	case "telephone":
		return agw.PageTelephone, nil
	case "other":
		return agw.PageOther, nil
	default:
		return agw.PageOther, fmt.Errorf("unknown page %q (audio, telephone or other)", c.Page)
	}
}

// Symbols maps the configured symbol names to their wire codes.
func (c *Config) Symbols() (upper, lower agw.Symbol, err error) {
	if upper, err = symbolCode(c.UpperSymbol); err != nil {
		return
	}
	lower, err = symbolCode(c.LowerSymbol)
	return
}

var symbolNames = map[string]agw.Symbol{
	"":           agw.SymbolNone,
	"none":       agw.SymbolNone,
	"skip_track": agw.SymbolSkipTrack,
	"prev_track": agw.SymbolPrevTrack,
	"fast_fwd":   agw.SymbolFastFwd,
	"fast_rev":   agw.SymbolFastRev,
	"play":       agw.SymbolPlay,
	"rewind":     agw.SymbolRewind,
	"up_arrow":   agw.SymbolUpArrow,
	"down_arrow": agw.SymbolDownArrow,
}

func symbolCode(name string) (agw.Symbol, error) {
	if s, ok := symbolNames[strings.ToLower(name)]; ok {
		return s, nil
	}
	return agw.SymbolNone, fmt.Errorf("unknown symbol %q", name)
}
