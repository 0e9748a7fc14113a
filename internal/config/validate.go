package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

var ErrInvalid = errors.New("invalid value")

var (
	sourcePlugins = []string{"lsmas", "mp4ff"}
	detectors     = []string{"wwxd", "scxvid"}
	logFormats    = []string{"json", "text"}
)

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Paths.CacheDir == "" {
		result = multierror.Append(result, fmt.Errorf("paths.cache_dir: %w: must not be empty", ErrInvalid))
	}
	if err := c.Source.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Keyframes.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Logging.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (s *SourceConfig) Validate() error {
	var result *multierror.Error
	if !slices.Contains(sourcePlugins, s.Plugin) {
		result = multierror.Append(result, fmt.Errorf("source.plugin: %w %q, want one of %v", ErrInvalid, s.Plugin, sourcePlugins))
	}
	if s.FFmpegPath == "" {
		result = multierror.Append(result, fmt.Errorf("source.ffmpeg_path: %w: must not be empty", ErrInvalid))
	}
	if s.FFprobePath == "" {
		result = multierror.Append(result, fmt.Errorf("source.ffprobe_path: %w: must not be empty", ErrInvalid))
	}
	return result.ErrorOrNil()
}

func (k *KeyframesConfig) Validate() error {
	var result *multierror.Error
	if !slices.Contains(detectors, k.Detector) {
		result = multierror.Append(result, fmt.Errorf("keyframes.detector: %w %q, want one of %v", ErrInvalid, k.Detector, detectors))
	}
	if k.ResizeHeight <= 0 {
		result = multierror.Append(result, fmt.Errorf("keyframes.resize_height: %w %d, must be positive", ErrInvalid, k.ResizeHeight))
	}
	if k.Threshold < 0 {
		result = multierror.Append(result, fmt.Errorf("keyframes.threshold: %w %g, must not be negative", ErrInvalid, k.Threshold))
	}
	return result.ErrorOrNil()
}

func (l *LoggingConfig) Validate() error {
	var result *multierror.Error
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("logging.level: %w", err))
	}
	if !slices.Contains(logFormats, l.Format) {
		result = multierror.Append(result, fmt.Errorf("logging.format: %w %q, want one of %v", ErrInvalid, l.Format, logFormats))
	}
	if l.Output == "" {
		result = multierror.Append(result, fmt.Errorf("logging.output: %w: must not be empty", ErrInvalid))
	}
	if l.MaxSize < 0 || l.MaxBackups < 0 || l.MaxAge < 0 {
		result = multierror.Append(result, fmt.Errorf("logging: %w: rotation limits must not be negative", ErrInvalid))
	}
	return result.ErrorOrNil()
}
