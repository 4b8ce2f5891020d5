package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".roundtable"
	envPrefix  = "RT"

	KeyGenerationEndpoint = "generation.endpoint"
	KeyGenerationTimeout  = "generation.timeout"
	KeyPersonasPath       = "personas.path"
	KeyRevealInterval     = "reveal.interval"
	KeyRevealChunk        = "reveal.chunk"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
	KeyBackendListen      = "backend.listen"
	KeyBackendUpstreamURL = "backend.upstream_url"
	KeyBackendModel       = "backend.model"
	KeyBackendMaxTokens   = "backend.max_tokens"
	KeyBackendTemperature = "backend.temperature"
	KeyBackendTimeout     = "backend.timeout"
	KeyBackendAPIKeyRef   = "backend.api_key_ref"
	KeySecretsDir         = "secrets.dir"
	KeyArchiveDir         = "archive.dir"
)

type Config struct {
	Generation Generation
	Personas   Personas
	Reveal     Reveal
	Log        Log
	Backend    Backend
	Secrets    Secrets
	Archive    Archive
	// Home is the directory holding config.toml, the default log file and
	// the secret store.
	Home string
}

type Generation struct {
	Endpoint string
	Timeout  time.Duration
}

type Personas struct {
	// Path to a TOML or YAML catalog; empty selects the built-in catalog.
	Path string
}

type Reveal struct {
	Interval time.Duration
	Chunk    int
}

type Log struct {
	Level string
	File  string
}

type Backend struct {
	Listen      string
	UpstreamURL string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	APIKeyRef   string
}

type Secrets struct {
	Dir string
}

// Archive is where saved sessions are written, one TOML file per session.
type Archive struct {
	Dir string
}

// Load reads config.toml from file (or from ~/.roundtable when file is
// empty), overlays RT_* environment variables and validates the result.
// A missing default config file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	home := filepath.Join(homeDir, configDir)

	setDefaults(v, home)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Home: home,
		Generation: Generation{
			Endpoint: strings.TrimSpace(v.GetString(KeyGenerationEndpoint)),
			Timeout:  v.GetDuration(KeyGenerationTimeout),
		},
		Personas: Personas{Path: expandHome(v.GetString(KeyPersonasPath), homeDir)},
		Reveal: Reveal{
			Interval: v.GetDuration(KeyRevealInterval),
			Chunk:    v.GetInt(KeyRevealChunk),
		},
		Log: Log{
			Level: v.GetString(KeyLogLevel),
			File:  expandHome(v.GetString(KeyLogFile), homeDir),
		},
		Backend: Backend{
			Listen:      v.GetString(KeyBackendListen),
			UpstreamURL: strings.TrimSpace(v.GetString(KeyBackendUpstreamURL)),
			Model:       v.GetString(KeyBackendModel),
			MaxTokens:   v.GetInt(KeyBackendMaxTokens),
			Temperature: v.GetFloat64(KeyBackendTemperature),
			Timeout:     v.GetDuration(KeyBackendTimeout),
			APIKeyRef:   v.GetString(KeyBackendAPIKeyRef),
		},
		Secrets: Secrets{Dir: expandHome(v.GetString(KeySecretsDir), homeDir)},
		Archive: Archive{Dir: expandHome(v.GetString(KeyArchiveDir), homeDir)},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault(KeyGenerationEndpoint, "http://127.0.0.1:8000/api/generate")
	v.SetDefault(KeyGenerationTimeout, 60*time.Second)
	v.SetDefault(KeyPersonasPath, "")
	v.SetDefault(KeyRevealInterval, 20*time.Millisecond)
	v.SetDefault(KeyRevealChunk, 1)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyBackendListen, "127.0.0.1:8000")
	v.SetDefault(KeyBackendUpstreamURL, "https://api.openai.com/v1/chat/completions")
	v.SetDefault(KeyBackendModel, "gpt-4")
	v.SetDefault(KeyBackendMaxTokens, 150)
	v.SetDefault(KeyBackendTemperature, 0.7)
	v.SetDefault(KeyBackendTimeout, 30*time.Second)
	v.SetDefault(KeyBackendAPIKeyRef, "openai/api_key")
	v.SetDefault(KeySecretsDir, filepath.Join(home, "secrets"))
	v.SetDefault(KeyArchiveDir, filepath.Join(home, "sessions"))
}

func (c Config) Validate() error {
	var errs []error
	if err := validateURL(KeyGenerationEndpoint, c.Generation.Endpoint); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL(KeyBackendUpstreamURL, c.Backend.UpstreamURL); err != nil {
		errs = append(errs, err)
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyGenerationTimeout))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyBackendTimeout))
	}
	if c.Reveal.Interval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRevealInterval))
	}
	if c.Reveal.Chunk < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyRevealChunk))
	}
	if c.Backend.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyBackendMaxTokens))
	}
	if strings.TrimSpace(c.Backend.Model) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyBackendModel))
	}
	if strings.TrimSpace(c.Backend.APIKeyRef) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyBackendAPIKeyRef))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validateURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	return nil
}

func expandHome(path, homeDir string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
