// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL           string  `mapstructure:"rpc_url"`
	MeteoraAPIBase   string  `mapstructure:"meteora_api_base"`
	DammAPIBase      string  `mapstructure:"damm_api_base"`
	JupiterAPIBase   string  `mapstructure:"jupiter_api_base"`
	RatesAPIURL      string  `mapstructure:"rates_api_url"`
	RefreshDelay     int     `mapstructure:"refresh_delay"`      // ms between portfolio refreshes
	StaggerDelay     int     `mapstructure:"stagger_delay"`      // ms added per fan-out index
	DustThresholdUsd float64 `mapstructure:"dust_threshold_usd"` // minimum TVL kept in the portfolio
	SignatureLimit   int     `mapstructure:"signature_limit"`    // tx signatures scanned by the locator
	CandidateLimit   int     `mapstructure:"candidate_limit"`    // candidate addresses validated by the locator
	LaunchInterval   int     `mapstructure:"launch_interval"`    // ms between pool-launch checks
	LaunchTimeout    int     `mapstructure:"launch_timeout"`     // seconds before the launch monitor gives up
	HistoryFile      string  `mapstructure:"history_file"`
	ExportDir        string  `mapstructure:"export_dir"`
	DebugLogging     bool    `mapstructure:"debug_logging"`
}

const (
	DefaultMeteoraAPIBase = "https://dlmm-api.meteora.ag"
	DefaultDammAPIBase    = "https://dammv2-api.meteora.ag"
	DefaultJupiterAPIBase = "https://lite-api.jup.ag/swap/v1"
	DefaultRatesAPIURL    = "https://open.er-api.com/v6/latest/USD"

	DefaultRefreshDelay     = 30_000
	DefaultStaggerDelay     = 100
	DefaultDustThresholdUsd = 0.01
	DefaultSignatureLimit   = 50
	DefaultCandidateLimit   = 50
	DefaultLaunchInterval   = 2_000
	DefaultLaunchTimeout    = 300
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"meteora_api_base":   DefaultMeteoraAPIBase,
		"damm_api_base":      DefaultDammAPIBase,
		"jupiter_api_base":   DefaultJupiterAPIBase,
		"rates_api_url":      DefaultRatesAPIURL,
		"refresh_delay":      DefaultRefreshDelay,
		"stagger_delay":      DefaultStaggerDelay,
		"dust_threshold_usd": DefaultDustThresholdUsd,
		"signature_limit":    DefaultSignatureLimit,
		"candidate_limit":    DefaultCandidateLimit,
		"launch_interval":    DefaultLaunchInterval,
		"launch_timeout":     DefaultLaunchTimeout,
		"history_file":       "search_history.json",
		"export_dir":         "exports",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	for _, apiURL := range []string{cfg.MeteoraAPIBase, cfg.DammAPIBase, cfg.JupiterAPIBase, cfg.RatesAPIURL} {
		if err := validateURLWithCache(apiURL, "http"); err != nil {
			return errors.New("invalid API URL protocol")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.RefreshDelay <= 0 {
		return errors.New("invalid refresh_delay")
	}
	if cfg.StaggerDelay < 0 {
		return errors.New("invalid stagger_delay")
	}
	if cfg.DustThresholdUsd < 0 {
		return errors.New("invalid dust_threshold_usd")
	}
	if cfg.SignatureLimit <= 0 {
		return errors.New("invalid signature_limit")
	}
	if cfg.CandidateLimit <= 0 {
		return errors.New("invalid candidate_limit")
	}
	if cfg.LaunchInterval <= 0 {
		return errors.New("invalid launch_interval")
	}
	if cfg.LaunchTimeout <= 0 {
		return errors.New("invalid launch_timeout")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("METINA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envRPC := v.GetString("RPC_URL")
	if envRPC != "" {
		cfg.RPCURL = strings.TrimSpace(envRPC)
	}

	envMeteora := v.GetString("METEORA_API_BASE")
	if envMeteora != "" {
		cfg.MeteoraAPIBase = strings.TrimSpace(envMeteora)
	}
	return nil
}
