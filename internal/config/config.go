// Package config handles atlastool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"

	"github.com/Faultbox/atlastool/internal/logger"
	"github.com/Faultbox/atlastool/pkg/binpack"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Output formats for the atlas index.
const (
	FormatBinary = "binary"
	FormatText   = "text"
)

// Largest sheet side the binary index can address.
const maxSheetSide = 0xFFFF

// Config holds all atlastool settings.
type Config struct {
	Packing    PackingConfig    `yaml:"packing"`
	Processing ProcessingConfig `yaml:"processing"`
	Output     OutputConfig     `yaml:"output"`
	Batch      BatchConfig      `yaml:"batch"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `yaml:"-"`
}

// PackingConfig holds bin packing settings.
type PackingConfig struct {
	Algorithm    string `yaml:"algorithm"` // maxrects or guillotine
	StartWidth   int    `yaml:"start_width"`
	StartHeight  int    `yaml:"start_height"`
	MaxWidth     int    `yaml:"max_width"`
	MaxHeight    int    `yaml:"max_height"`
	MaxSheets    int    `yaml:"max_sheets"` // 0 means unlimited
	MarginX      int    `yaml:"margin_x"`
	MarginY      int    `yaml:"margin_y"`
	MarginPolicy string `yaml:"margin_policy"`
}

// ProcessingConfig holds tile processing settings.
type ProcessingConfig struct {
	Bleed bool `yaml:"bleed"` // fill the extrusion border with edge pixels
}

// OutputConfig holds atlas index settings.
type OutputConfig struct {
	Format string `yaml:"format"` // binary or text
}

// BatchConfig holds settings for collapse-all and expand-all.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 means one per CPU
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Packing: PackingConfig{
			Algorithm:    "maxrects",
			StartWidth:   32,
			StartHeight:  32,
			MaxWidth:     4096,
			MaxHeight:    4096,
			MaxSheets:    0,
			MarginX:      1,
			MarginY:      1,
			MarginPolicy: "all",
		},
		Processing: ProcessingConfig{
			Bleed: false,
		},
		Output: OutputConfig{
			Format: FormatBinary,
		},
		Batch: BatchConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.PackOptions(); err != nil {
		return err
	}
	if c.Packing.MaxWidth > maxSheetSide || c.Packing.MaxHeight > maxSheetSide {
		return fmt.Errorf("%w: max sheet size %dx%d exceeds %d",
			ErrInvalid, c.Packing.MaxWidth, c.Packing.MaxHeight, maxSheetSide)
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatBinary, FormatText:
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalid, c.Output.Format)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers %d", ErrInvalid, c.Batch.Workers)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// PackOptions converts the packing section into packer options.
func (c *Config) PackOptions() (binpack.Options, error) {
	p := c.Packing
	algo, err := binpack.ParseAlgorithm(p.Algorithm)
	if err != nil {
		return binpack.Options{}, fmt.Errorf("%w: packing.algorithm: %v", ErrInvalid, err)
	}
	policy, err := binpack.ParseMarginPolicy(p.MarginPolicy)
	if err != nil {
		return binpack.Options{}, fmt.Errorf("%w: packing.margin_policy: %v", ErrInvalid, err)
	}
	opts := binpack.Options{
		Algorithm: algo,
		StartSize: image.Pt(p.StartWidth, p.StartHeight),
		MaxSize:   image.Pt(p.MaxWidth, p.MaxHeight),
		MaxSheets: p.MaxSheets,
		Margin:    image.Pt(p.MarginX, p.MarginY),
		Policy:    policy,
	}
	if err := opts.Validate(); err != nil {
		return binpack.Options{}, fmt.Errorf("%w: packing: %v", ErrInvalid, err)
	}
	return opts, nil
}

// TextOutput reports whether the index is written in the text format.
func (c *Config) TextOutput() bool {
	return strings.EqualFold(c.Output.Format, FormatText)
}

// Workers returns the batch worker count, resolving 0 to the CPU count.
func (c *Config) Workers() int {
	if c.Batch.Workers > 0 {
		return c.Batch.Workers
	}
	return runtime.NumCPU()
}
