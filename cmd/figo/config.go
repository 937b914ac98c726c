package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AmmannChristian/go-figo/pinning"
	"github.com/AmmannChristian/go-figo/transport"
)

// cliConfig is the merged result of flags, FIGO_* environment variables and
// the optional figo.yaml file, in that order of precedence.
type cliConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	Fingerprints []string      `mapstructure:"fingerprints"`
	CAFile       string        `mapstructure:"ca_file"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	AccessToken  string        `mapstructure:"access_token"`
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"endpoint":      "endpoint",
	"client-id":     "client_id",
	"client-secret": "client_secret",
	"redirect-uri":  "redirect_uri",
	"fingerprint":   "fingerprints",
	"ca-file":       "ca_file",
	"timeout":       "timeout",
	"log-level":     "log_level",
}

func loadConfig(v *viper.Viper, flags *pflag.FlagSet, configFile string) (cliConfig, error) {
	v.SetDefault("endpoint", transport.DefaultEndpoint)
	v.SetDefault("timeout", transport.DefaultTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("access_token", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("figo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/figo")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("FIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return cliConfig{}, fmt.Errorf("config: bind %s: %w", name, err)
			}
		}
	}

	var c cliConfig
	if err := v.Unmarshal(&c); err != nil {
		return cliConfig{}, fmt.Errorf("config: %w", err)
	}
	// FIGO_FINGERPRINTS is a comma separated list.
	if len(c.Fingerprints) == 1 && strings.Contains(c.Fingerprints[0], ",") {
		c.Fingerprints = strings.Split(c.Fingerprints[0], ",")
	}
	return c, nil
}

func (c cliConfig) transportConfig() (transport.Config, error) {
	cfg := transport.DefaultConfig()

	ep, err := transport.ParseEndpoint(c.Endpoint)
	if err != nil {
		return cfg, err
	}
	cfg.Endpoint = ep

	if len(c.Fingerprints) > 0 {
		set, err := pinning.NewFingerprintSet(c.Fingerprints...)
		if err != nil {
			return cfg, err
		}
		cfg.Fingerprints = set
	}
	cfg.CAFile = c.CAFile
	if c.Timeout > 0 {
		cfg.ConnectTimeout = c.Timeout
		cfg.ReadTimeout = c.Timeout
	}
	return cfg, nil
}

// newLogger writes JSON records to stderr so stdout stays machine readable.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "@timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}
