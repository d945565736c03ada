// MIT License
//
// Copyright (c) 2020 Plamen Petrov
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config loads the engine's run-time tunables from an optional JSON
// file, falling back to defaults tuned for a single offline run.
package config

import (
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"
)

const (
	defaultMaxGapPixels = 10000
	defaultLogLevel     = "Info"
	defaultOutputDir    = "."
)

// Config represents the engine's run-time parameters. Only MaxGapPixels
// affects the reconstruction itself; the rest govern the CLI wrapper.
type Config struct {
	// MaxGapPixels bounds how many filler pixels a single hole between two
	// leaves may contribute before the tape builder closes the region.
	MaxGapPixels uint64 `json:"max_gap_pixels"`
	// LogLevel names a logrus level: Debug, Info, Warn, Error.
	LogLevel string `json:"log_level"`
	// OutputDir is where the emitted record is written; the filename
	// itself is always derived from the dump path and directory base.
	OutputDir string `json:"output_dir"`
}

// Default returns the Config used when no file is supplied.
func Default() *Config {
	return &Config{
		MaxGapPixels: defaultMaxGapPixels,
		LogLevel:     defaultLogLevel,
		OutputDir:    defaultOutputDir,
	}
}

// LoadConfig loads configuration from the JSON file at path, overlaying it
// onto the defaults. An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config from %q", path)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %q", path)
	}
	return cfg, nil
}
