package tool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/batchupload/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

const (
	PolicyResume  = "resume"
	PolicyDiscard = "discard"
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Endpoint:       "http://localhost:4000/file",
		ListenPort:     4000,
		FieldName:      "file",
		Throttle:       "",
		Policy:         PolicyResume,
		RequestTimeout: "30s",
		MaxUploadBytes: 32 << 20,
		ReceiptTTL:     "10m",
	}
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %w", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}

	CurrentConfig = cfg
	return cfg, nil
}

// ValidateConfig rejects values the rest of the program cannot interpret.
func ValidateConfig(cfg types.AppConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if cfg.Policy != PolicyResume && cfg.Policy != PolicyDiscard {
		return fmt.Errorf("unknown policy %q (want %s or %s)", cfg.Policy, PolicyResume, PolicyDiscard)
	}
	for name, value := range map[string]string{
		"throttle":       cfg.Throttle,
		"requestTimeout": cfg.RequestTimeout,
		"receiptTTL":     cfg.ReceiptTTL,
	} {
		if _, err := ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// ParseDuration parses a config duration; an empty string means zero.
func ParseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", value)
	}
	return d, nil
}

// ApplyFlagOverrides merges non-zero CLI overrides into cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UseEndpoint != "" {
		cfg.Endpoint = flags.UseEndpoint
	}
	if flags.UseListenPort > 0 {
		cfg.ListenPort = flags.UseListenPort
	}
	if flags.UseThrottle != "" {
		cfg.Throttle = flags.UseThrottle
	}
	if flags.UsePolicy != "" {
		cfg.Policy = flags.UsePolicy
	}
	if flags.UseControlPort > 0 {
		cfg.ControlPort = flags.UseControlPort
	}
	if flags.UseNotifySocket != "" {
		cfg.NotifySocket = flags.UseNotifySocket
	}
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
