// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// config.go loads runtime tunables for a CommandQueue/CommandServer
// pair from an optional yaml document, the way the teacher's
// load/shd.go loads a shader description (teacher, now removed after
// extraction — see DESIGN.md).

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config holds tunables that affect only performance characteristics,
// never protocol semantics: every field has a zero-value-safe default.
type Config struct {
	// PODStreamInitialCapacity pre-allocates the command/message byte
	// buffers to avoid early reallocation on a queue that is known to
	// carry a lot of traffic.
	PODStreamInitialCapacity int `yaml:"podStreamInitialCapacity"`

	// SubscriptionDiffBufferSize hints the expected subscription-set
	// size so flushSubscriptions's map doesn't grow one bucket at a
	// time during a long-running session.
	SubscriptionDiffBufferSize int `yaml:"subscriptionDiffBufferSize"`

	// LogLevel sets the minimum level of the CommandServer's slog
	// logger. One of "debug", "info", "warn", "error"; empty or any
	// other value means "warn". Recovered callback panics are logged at
	// error level, so every setting still shows them.
	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns a Config with conservative defaults.
func DefaultConfig() Config {
	return Config{
		PODStreamInitialCapacity:   4096,
		SubscriptionDiffBufferSize: 64,
		LogLevel:                   "warn",
	}
}

// LoadConfig parses a yaml configuration document, starting from
// DefaultConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("rive: LoadConfig: yaml: %w", err)
	}
	return cfg, nil
}
