package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Paths    PathsConfig   `mapstructure:"paths"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	TTS      TTSConfig     `mapstructure:"tts"`
	Server   ServerConfig  `mapstructure:"server"`
}

type PathsConfig struct {
	ModelDir string `mapstructure:"model_dir"`
	VoiceDir string `mapstructure:"voice_dir"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
	UseGPU         bool   `mapstructure:"use_gpu"`
}

type TTSConfig struct {
	TotalSteps     int     `mapstructure:"total_steps"`
	Speed          float64 `mapstructure:"speed"`
	SilenceSeconds float64 `mapstructure:"silence_seconds"`
	MaxChunkChars  int     `mapstructure:"max_chunk_chars"`
}

type ServerConfig struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	MaxTextBytes   int    `mapstructure:"max_text_bytes"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			ModelDir: "assets/onnx",
			VoiceDir: "assets/voice_styles",
		},
		Runtime: RuntimeConfig{
			ORTLibraryPath: "",
			ORTAPIVersion:  23,
			UseGPU:         false,
		},
		TTS: TTSConfig{
			TotalSteps:     5,
			Speed:          1.05,
			SilenceSeconds: 0.3,
			MaxChunkChars:  300,
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			MaxTextBytes:   4096,
			RequestTimeout: 60,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-model-dir", defaults.Paths.ModelDir, "Directory containing the ONNX models, tts.json, and unicode_indexer.json")
	fs.String("paths-voice-dir", defaults.Paths.VoiceDir, "Directory containing voice style JSON files")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.Uint32("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version")
	fs.Bool("use-gpu", defaults.Runtime.UseGPU, "Request GPU execution (unsupported; fails validation)")
	fs.Int("total-step", defaults.TTS.TotalSteps, "Number of denoising steps (higher = better quality, slower)")
	fs.Float64("speed", defaults.TTS.Speed, "Speech speed factor (higher = faster)")
	fs.Float64("silence", defaults.TTS.SilenceSeconds, "Silence inserted between chunks in seconds")
	fs.Int("max-chunk-chars", defaults.TTS.MaxChunkChars, "Maximum characters per synthesis chunk")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum text size in bytes for POST /tts")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis deadline in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("SUPERTONIC")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "SUPERTONIC_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("supertonic")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.model_dir", c.Paths.ModelDir)
	v.SetDefault("paths.voice_dir", c.Paths.VoiceDir)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("runtime.use_gpu", c.Runtime.UseGPU)
	v.SetDefault("tts.total_steps", c.TTS.TotalSteps)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("tts.silence_seconds", c.TTS.SilenceSeconds)
	v.SetDefault("tts.max_chunk_chars", c.TTS.MaxChunkChars)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("log_level", "log-level")
	v.RegisterAlias("paths.model_dir", "paths-model-dir")
	v.RegisterAlias("paths.voice_dir", "paths-voice-dir")
	v.RegisterAlias("runtime.ort_library_path", "runtime-ort-library-path")
	v.RegisterAlias("runtime.ort_library_path", "ort-lib")
	v.RegisterAlias("runtime.ort_api_version", "runtime-ort-api-version")
	v.RegisterAlias("runtime.use_gpu", "use-gpu")
	v.RegisterAlias("tts.total_steps", "total-step")
	v.RegisterAlias("tts.speed", "speed")
	v.RegisterAlias("tts.silence_seconds", "silence")
	v.RegisterAlias("tts.max_chunk_chars", "max-chunk-chars")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_text_bytes", "server-max-text-bytes")
	v.RegisterAlias("server.request_timeout", "server-request-timeout")
}
