// hot_reload.go: dynamic tuning with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthus

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotTuning provides dynamic reload of the runtime-tunable fields of a
// Config using Argus. It watches a configuration file and updates
// SpinLimit when changes are detected; Logger and MetricsCollector are
// not reloaded.
//
// Bit-layout constants such as a cell's SLOCK_MAX or a DataArray's fixed
// slot count are compile-time, not config-driven, and are never
// touched by hot reload: changing them at runtime would require
// re-laying-out every live Cell and DataArray, which this package does
// not support.
type HotTuning struct {
	watcher *argus.Watcher
	mu      sync.RWMutex
	config  Config

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig Config)
}

// HotTuningOptions configures hot reload behavior.
type HotTuningOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig Config)

	// Logger for hot reload operations. If nil, uses NoOpLogger.
	Logger Logger
}

// NewHotTuning creates a new hot-reloadable tuning surface. It starts
// watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	xanthus:
//	  spin_limit: 128
//
// Supported configuration keys:
//   - xanthus.spin_limit (int): stored as Config.SpinLimit
func NewHotTuning(opts HotTuningOptions) (*HotTuning, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	ht := &HotTuning{
		OnReload: opts.OnReload,
		config:   DefaultConfig(),
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, ht.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	ht.watcher = watcher

	return ht, nil
}

// Start begins watching the configuration file for changes.
func (ht *HotTuning) Start() error {
	if ht.watcher.IsRunning() {
		return nil
	}
	return ht.watcher.Start()
}

// Stop stops watching the configuration file.
func (ht *HotTuning) Stop() error {
	return ht.watcher.Stop()
}

// GetConfig returns the current configuration (thread-safe).
func (ht *HotTuning) GetConfig() Config {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.config
}

func (ht *HotTuning) handleConfigChange(configData map[string]interface{}) {
	ht.mu.Lock()
	oldConfig := ht.config
	newConfig := ht.parseConfig(configData)
	ht.config = newConfig
	ht.mu.Unlock()

	if ht.OnReload != nil {
		ht.OnReload(oldConfig, newConfig)
	}
}

// parseSpinLimit extracts a non-negative spin limit from interface{}.
// Supports both int and float64 types (YAML/JSON may vary).
func parseSpinLimit(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v >= 0 {
			return v, true
		}
	case float64:
		if v >= 0 {
			return int(v), true
		}
	}
	return 0, false
}

func (ht *HotTuning) parseConfig(data map[string]interface{}) Config {
	config := ht.config

	section, ok := data["xanthus"].(map[string]interface{})
	if !ok {
		if _, hasSpinLimit := data["spin_limit"]; hasSpinLimit {
			section = data
		} else {
			return config
		}
	}

	if limit, ok := parseSpinLimit(section["spin_limit"]); ok {
		config.SpinLimit = limit
	}

	return config
}
