package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/tube-grabber/internal/constants"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// OutputPath is the root directory; Video and Audio folders are created inside it.
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	// ListenAddress is the host:port the HTTP server binds to.
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// LogFile is an optional path of a rotating log file.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
	// LogMaxSizeMB is the size in megabytes at which the log file is rotated.
	LogMaxSizeMB int `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups int `mapstructure:"log_max_backups" yaml:"log_max_backups"`
	// MaxLogLength limits dumped HTTP bodies in debug logs (e.g., "1MB").
	MaxLogLength string `mapstructure:"max_log_length" yaml:"max_log_length"`
	// YTDLPPath is an explicit path to the yt-dlp executable.
	// Empty means yt-dlp is looked up in PATH.
	YTDLPPath string `mapstructure:"ytdlp_path" yaml:"ytdlp_path"`
	// AutoInstallYTDLP downloads a private yt-dlp build when none is available.
	AutoInstallYTDLP bool `mapstructure:"auto_install_ytdlp" yaml:"auto_install_ytdlp"`
	// FFmpegLocation is an explicit path to ffmpeg or to the directory containing it.
	FFmpegLocation string `mapstructure:"ffmpeg_location" yaml:"ffmpeg_location"`
	// VideoContainer is the container video downloads are merged into.
	VideoContainer string `mapstructure:"video_container" yaml:"video_container"`
	// AudioFormat is the format audio downloads are converted to.
	AudioFormat string `mapstructure:"audio_format" yaml:"audio_format"`
	// AudioQuality is the target audio bitrate in kbps.
	AudioQuality int `mapstructure:"audio_quality" yaml:"audio_quality"`
	// EmbedThumbnail embeds the video thumbnail and title tags into audio files.
	EmbedThumbnail bool `mapstructure:"embed_thumbnail" yaml:"embed_thumbnail"`
	// MaxTitleLength is the maximum number of characters kept from a title in filenames.
	MaxTitleLength int `mapstructure:"max_title_length" yaml:"max_title_length"`
	// MetadataCacheSize is the number of inspected URLs whose metadata is kept in memory.
	MetadataCacheSize int `mapstructure:"metadata_cache_size" yaml:"metadata_cache_size"`
	// FetchTimeout bounds a single metadata extraction (e.g., "60s").
	FetchTimeout string `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	// ThumbnailTimeout bounds a single thumbnail download (e.g., "30s").
	ThumbnailTimeout string `mapstructure:"thumbnail_timeout" yaml:"thumbnail_timeout"`
	// ProgressInterval is how often yt-dlp reports progress (e.g., "500ms").
	ProgressInterval string `mapstructure:"progress_interval" yaml:"progress_interval"`
	// UserAgent overrides the User-Agent used for thumbnail requests.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// ParsedOutputPath is the absolute output path with the home directory expanded.
	ParsedOutputPath string `mapstructure:"-" yaml:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `mapstructure:"-" yaml:"-"`
	// ParsedMaxLogLength is the parsed maximum dump length in bytes.
	ParsedMaxLogLength uint64 `mapstructure:"-" yaml:"-"`
	// ParsedFetchTimeout is the parsed metadata extraction timeout.
	ParsedFetchTimeout time.Duration `mapstructure:"-" yaml:"-"`
	// ParsedThumbnailTimeout is the parsed thumbnail download timeout.
	ParsedThumbnailTimeout time.Duration `mapstructure:"-" yaml:"-"`
	// ParsedProgressInterval is the parsed progress reporting interval.
	ParsedProgressInterval time.Duration `mapstructure:"-" yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".tube-grabber.yaml"

	// EnvPrefix is the prefix of environment variables overriding configuration keys.
	EnvPrefix = "TUBE_GRABBER"

	// DefaultOutputPath is the default root download directory.
	DefaultOutputPath = "~/Downloads/Tube Grabber"

	// DefaultListenAddress is the default address of the HTTP server.
	DefaultListenAddress = "127.0.0.1:5000"

	// DefaultMaxLogLength is the default maximum size (in bytes) of dumped HTTP data.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// DefaultMaxTitleLength is the default title length limit in filenames.
	DefaultMaxTitleLength = 200

	// minTitleLength leaves room for the quality suffix and extension.
	minTitleLength = 16

	minAudioQuality = 32
	maxAudioQuality = 320
)

//nolint:gochecknoglobals // Immutable lookup tables.
var (
	supportedAudioFormats    = []string{"mp3", "flac"}
	supportedVideoContainers = []string{"mp4", "mkv", "webm"}
)

// Static error definitions for better error handling.
var (
	// ErrEmptyOutputPath indicates that the output path is missing.
	ErrEmptyOutputPath = errors.New("output path cannot be empty")
	// ErrEmptyListenAddress indicates that the listen address is missing.
	ErrEmptyListenAddress = errors.New("listen address cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidLogRotation indicates negative log rotation settings.
	ErrInvalidLogRotation = errors.New("log_max_size_mb and log_max_backups cannot be negative")
	// ErrInvalidAudioFormat indicates an unsupported audio format.
	ErrInvalidAudioFormat = errors.New("unsupported audio format")
	// ErrInvalidVideoContainer indicates an unsupported video container.
	ErrInvalidVideoContainer = errors.New("unsupported video container")
	// ErrInvalidAudioQuality indicates an out-of-range audio bitrate.
	ErrInvalidAudioQuality = errors.New("invalid audio quality")
	// ErrInvalidMaxTitleLength indicates a title length limit that is too small.
	ErrInvalidMaxTitleLength = errors.New("invalid max_title_length")
	// ErrInvalidCacheSize indicates a non-positive metadata cache size.
	ErrInvalidCacheSize = errors.New("metadata_cache_size must be a positive integer")
	// ErrInvalidFetchTimeout indicates a non-positive fetch timeout.
	ErrInvalidFetchTimeout = errors.New("fetch_timeout must be positive")
	// ErrInvalidThumbnailTimeout indicates a non-positive thumbnail timeout.
	ErrInvalidThumbnailTimeout = errors.New("thumbnail_timeout must be positive")
	// ErrInvalidProgressInterval indicates a non-positive progress interval.
	ErrInvalidProgressInterval = errors.New("progress_interval must be positive")
)

// Defaults returns the configuration used when no file or environment value overrides a key.
func Defaults() *Config {
	return &Config{
		OutputPath:        DefaultOutputPath,
		ListenAddress:     DefaultListenAddress,
		LogLevel:          "info",
		LogFile:           "",
		LogMaxSizeMB:      10,
		LogMaxBackups:     3,
		MaxLogLength:      "1MB",
		YTDLPPath:         "",
		AutoInstallYTDLP:  false,
		FFmpegLocation:    "",
		VideoContainer:    "mp4",
		AudioFormat:       "mp3",
		AudioQuality:      192,
		EmbedThumbnail:    true,
		MaxTitleLength:    DefaultMaxTitleLength,
		MetadataCacheSize: 32,
		FetchTimeout:      "60s",
		ThumbnailTimeout:  "30s",
		ProgressInterval:  "500ms",
		UserAgent:         "",
	}
}

// LoadConfig loads configuration settings from a YAML file, environment variables and defaults.
// When configFilename is empty the default file is used if it exists.
func LoadConfig(configFilename string) (*Config, error) {
	v := viper.New()

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil {
		if !isDefaultFile || !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	var values map[string]any

	raw, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	if err = yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}

	for key, value := range values {
		v.SetDefault(key, value)
	}

	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	outputPath := strings.TrimSpace(cfg.OutputPath)
	if outputPath == "" {
		return ErrEmptyOutputPath
	}

	cfg.ParsedOutputPath, err = ExpandPath(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return ErrEmptyListenAddress
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if cfg.LogMaxSizeMB < 0 || cfg.LogMaxBackups < 0 {
		return ErrInvalidLogRotation
	}

	cfg.ParsedMaxLogLength = DefaultMaxLogLength

	if maxLogLength := strings.TrimSpace(cfg.MaxLogLength); maxLogLength != "" {
		cfg.ParsedMaxLogLength, err = humanize.ParseBytes(maxLogLength)
		if err != nil {
			return fmt.Errorf("failed to parse max log length: %w", err)
		}
	}

	cfg.AudioFormat = strings.ToLower(strings.TrimSpace(cfg.AudioFormat))
	if !slices.Contains(supportedAudioFormats, cfg.AudioFormat) {
		return fmt.Errorf("%w: '%s', expected one of %v", ErrInvalidAudioFormat, cfg.AudioFormat, supportedAudioFormats)
	}

	cfg.VideoContainer = strings.ToLower(strings.TrimSpace(cfg.VideoContainer))
	if !slices.Contains(supportedVideoContainers, cfg.VideoContainer) {
		return fmt.Errorf("%w: '%s', expected one of %v",
			ErrInvalidVideoContainer, cfg.VideoContainer, supportedVideoContainers)
	}

	if cfg.AudioQuality < minAudioQuality || cfg.AudioQuality > maxAudioQuality {
		return fmt.Errorf("%w: must be between %d and %d kbps", ErrInvalidAudioQuality, minAudioQuality, maxAudioQuality)
	}

	if cfg.MaxTitleLength < minTitleLength {
		return fmt.Errorf("%w: must be at least %d", ErrInvalidMaxTitleLength, minTitleLength)
	}

	if cfg.MetadataCacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	cfg.ParsedFetchTimeout, err = parsePositiveDuration(cfg.FetchTimeout, ErrInvalidFetchTimeout)
	if err != nil {
		return err
	}

	cfg.ParsedThumbnailTimeout, err = parsePositiveDuration(cfg.ThumbnailTimeout, ErrInvalidThumbnailTimeout)
	if err != nil {
		return err
	}

	cfg.ParsedProgressInterval, err = parsePositiveDuration(cfg.ProgressInterval, ErrInvalidProgressInterval)
	if err != nil {
		return err
	}

	return nil
}

func parsePositiveDuration(value string, errInvalid error) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalid, err)
	}

	if parsed <= 0 {
		return 0, errInvalid
	}

	return parsed, nil
}

// ExpandPath expands a leading "~" to the user's home directory and makes the path absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}

		path = filepath.Join(home, path[1:])
	}

	return filepath.Abs(path)
}

// WriteDefaultConfig writes the default configuration to path.
// An existing file is never overwritten.
func WriteDefaultConfig(path string) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	exists, err := utils.IsFileExist(path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", os.ErrExist, path)
	}

	content, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err = os.WriteFile(path, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
