package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "VSINDEX"

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Source    SourceConfig    `mapstructure:"source"`
	Keyframes KeyframesConfig `mapstructure:"keyframes"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type PathsConfig struct {
	CacheDir  string `mapstructure:"cache_dir"`
	PluginDir string `mapstructure:"plugin_dir"` // optional, Go plugins loaded on demand
}

type SourceConfig struct {
	Plugin      string `mapstructure:"plugin"` // lsmas or mp4ff
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

type KeyframesConfig struct {
	Detector     string  `mapstructure:"detector"` // wwxd or scxvid
	ResizeHeight int     `mapstructure:"resize_height"`
	Threshold    float64 `mapstructure:"threshold"` // 0 picks the detector default
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Load reads configuration from the optional YAML file at configPath, then
// from VSINDEX_* environment variables, over built-in defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are plain scalars; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.cache_dir", defaultCacheDir())
	v.SetDefault("paths.plugin_dir", "")

	v.SetDefault("source.plugin", "lsmas")
	v.SetDefault("source.ffmpeg_path", "ffmpeg")
	v.SetDefault("source.ffprobe_path", "ffprobe")

	v.SetDefault("keyframes.detector", "wwxd")
	v.SetDefault("keyframes.resize_height", 360)
	v.SetDefault("keyframes.threshold", 0.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 30)
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vsindex")
	}
	return filepath.Join(dir, "vsindex")
}
