// Package config loads the sync driver's tunables from TOML, the way
// cmd/geth configures a node from a config file via
// github.com/naoina/toml.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/naoina/toml"
)

// SyncConfig holds the tunables left open for operators to tune:
// the resume look-back window, the bootstrap window handed to the
// exchange at startup, and the result-queue wait timeout.
type SyncConfig struct {
	// ResumeHeaderWindow is how many recent headers resume fetches
	// when block progress is ahead of the canonical head. 128 is the
	// nominal value.
	ResumeHeaderWindow int `toml:"resume_header_window"`

	// BootstrapHeaderWindow is how many headers are handed to the
	// exchange's InitialState at startup. 65536 is the nominal value.
	BootstrapHeaderWindow int `toml:"bootstrap_header_window"`

	// ResultQueueWaitTimeout is the nominal 100ms timed wait on the
	// block exchange's result queue.
	ResultQueueWaitTimeout Duration `toml:"result_queue_wait_timeout"`

	// ResultQueueCapacity bounds the result queue's buffered batches.
	ResultQueueCapacity int `toml:"result_queue_capacity"`

	// AnnounceRatePerSecond and AnnounceBurst pace outbound
	// announcements handed to the block exchange.
	AnnounceRatePerSecond float64 `toml:"announce_rate_per_second"`
	AnnounceBurst         int     `toml:"announce_burst"`
}

// Duration wraps time.Duration so naoina/toml can (un)marshal it from
// a plain string like "100ms".
type Duration struct {
	time.Duration
}

// UnmarshalTOML implements the interface naoina/toml looks for on
// fields it cannot map directly onto a primitive TOML type.
func (d *Duration) UnmarshalTOML(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalTOML is the symmetric encode path.
func (d Duration) MarshalTOML() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.Duration.String())), nil
}

// Default returns the nominal configuration.
func Default() SyncConfig {
	return SyncConfig{
		ResumeHeaderWindow:     128,
		BootstrapHeaderWindow:  65536,
		ResultQueueWaitTimeout: Duration{100 * time.Millisecond},
		ResultQueueCapacity:    1024,
		AnnounceRatePerSecond:  50,
		AnnounceBurst:          10,
	}
}

// Load reads a SyncConfig from a TOML file at path, starting from
// Default() so a partial file only overrides what it sets.
func Load(path string) (SyncConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
