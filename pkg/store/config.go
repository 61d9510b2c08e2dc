package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// DefaultCollection is the root collection holding the class catalog.
	DefaultCollection = "routines"

	defaultPath          = "~/.uniroutine"
	defaultProbeInterval = 5 * time.Second
)

// Config carries the store location plus the engine policy switches that are
// read from the same config file.
type Config interface {
	BasePath() string
	Collection() string
	AutoSelectFirst() bool
	LegacyFields() bool
	RequireSubject() bool
	ProbeInterval() time.Duration
}

func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("path", defaultPath)
	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("auto_select_first", false)
	v.SetDefault("legacy_fields", true)
	v.SetDefault("require_subject", false)
	v.SetDefault("probe_interval", defaultProbeInterval)
	v.SetConfigName(".uniroutine") // .yaml is implicit
	v.SetEnvPrefix("UNIROUTINE")
	v.AutomaticEnv()

	if override := os.Getenv("UNIROUTINE_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}

	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	return &fileConfig{
		Path:           path,
		Root:           v.GetString("collection"),
		AutoSelect:     v.GetBool("auto_select_first"),
		Legacy:         v.GetBool("legacy_fields"),
		SubjectOnly:    v.GetBool("require_subject"),
		Probe:          v.GetDuration("probe_interval"),
		ConfigFileUsed: v.ConfigFileUsed(),
	}, nil
}

type fileConfig struct {
	Path           string        `json:"path"`
	Root           string        `json:"collection"`
	AutoSelect     bool          `json:"auto_select_first"`
	Legacy         bool          `json:"legacy_fields"`
	SubjectOnly    bool          `json:"require_subject"`
	Probe          time.Duration `json:"probe_interval"`
	ConfigFileUsed string        `json:"-"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) Collection() string {
	if f.Root == "" {
		return DefaultCollection
	}
	return f.Root
}

func (f *fileConfig) AutoSelectFirst() bool {
	return f.AutoSelect
}

func (f *fileConfig) LegacyFields() bool {
	return f.Legacy
}

func (f *fileConfig) RequireSubject() bool {
	return f.SubjectOnly
}

func (f *fileConfig) ProbeInterval() time.Duration {
	if f.Probe <= 0 {
		return defaultProbeInterval
	}
	return f.Probe
}

// ConfigFile reports the config file that was read, if any.
func ConfigFile(cfg Config) string {
	if fc, ok := cfg.(*fileConfig); ok {
		return fc.ConfigFileUsed
	}
	return ""
}
