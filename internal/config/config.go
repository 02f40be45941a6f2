// Package config loads the settings of the fatstream command line tool
// from a TOML file, the environment and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aligator/fatstream/fat"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FATSTREAM"

type Config struct {
	LogLevel          string `mapstructure:"log_level"`
	BytesPerSector    uint16 `mapstructure:"bytes_per_sector"`
	SectorsPerCluster uint8  `mapstructure:"sectors_per_cluster"`
	ImageSize         int64  `mapstructure:"image_size"`
	Label             string `mapstructure:"label"`
}

// flagKeys maps the config keys to the names of the flags which override them.
var flagKeys = map[string]string{
	"log_level":           "log-level",
	"bytes_per_sector":    "bytes-per-sector",
	"sectors_per_cluster": "sectors-per-cluster",
	"image_size":          "size",
	"label":               "label",
}

// DefaultDir is the directory searched for config.toml if no path is given.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fatstream"), nil
}

// Load reads the configuration. Values are taken in this order: changed
// flags, FATSTREAM_* environment variables, the config file and the defaults.
// flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(configPath, dir, "config", "toml", envPrefix)
	if err != nil {
		return nil, err
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("bytes_per_sector", 512)
	v.SetDefault("sectors_per_cluster", 1)
	v.SetDefault("image_size", 16<<20)
	v.SetDefault("label", "")

	if flags != nil {
		for key, name := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func initViper(configPath, defaultDir, defaultName, defaultType, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(defaultType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir)
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FormatOptions returns the options for fat.Format.
func (c *Config) FormatOptions() fat.FormatOptions {
	return fat.FormatOptions{
		BytesPerSector:    c.BytesPerSector,
		SectorsPerCluster: c.SectorsPerCluster,
		Label:             c.Label,
	}
}
