// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads inspectq settings from a configuration file
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override
// configuration file settings. Nested keys are joined with "_", so
// db.dsn is set by INSPECTQ_DB_DSN.
const EnvPrefix = "INSPECTQ"

// Config holds inspectq settings. Command-line flags override them.
type Config struct {
	// Source selects where documents are read from: "files", "db",
	// "server" or "gcs".
	Source string `mapstructure:"source"`

	// IDKey is the top-level key holding document IDs.
	IDKey string `mapstructure:"id_key"`

	// Exclude lists top-level keys dropped before flattening.
	Exclude []string `mapstructure:"exclude"`

	// Protect is the pattern of columns never pruned.
	Protect string `mapstructure:"protect"`

	DB     DBConfig     `mapstructure:"db"`
	Server ServerConfig `mapstructure:"server"`
	GCS    GCSConfig    `mapstructure:"gcs"`
	Plot   PlotConfig   `mapstructure:"plot"`
}

// DBConfig selects a SQL document store.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures the storage server, both as a client
// (URL) and when serving (Listen).
type ServerConfig struct {
	URL    string `mapstructure:"url"`
	Listen string `mapstructure:"listen"`
}

// GCSConfig selects a Cloud Storage bucket of documents.
type GCSConfig struct {
	Bucket      string `mapstructure:"bucket"`
	Prefix      string `mapstructure:"prefix"`
	Parallelism int    `mapstructure:"parallelism"`
}

// PlotConfig holds chart defaults. Width and Height are in
// centimeters.
type PlotConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	DPI    int     `mapstructure:"dpi"`
	Bins   int     `mapstructure:"bins"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Source:  "files",
		IDKey:   "inspection_id",
		Exclude: []string{"build_log"},
		Protect: "version",
		DB: DBConfig{
			Driver: "sqlite3",
			DSN:    "file:inspections.db",
		},
		Server: ServerConfig{
			Listen: "localhost:8080",
		},
		Plot: PlotConfig{
			Width:  16,
			Height: 10,
			DPI:    150,
		},
	}
}

// fileNames are the configuration file names searched for in the
// current and home directories, in order.
var fileNames = []string{".inspectq.yaml", ".inspectq.yml"}

// Find returns the path of the configuration file to load, or "" if
// there is none. It searches the current directory, the home
// directory, and then inspectq/config.yaml under the user
// configuration directory.
func Find() string {
	var candidates []string
	for _, dir := range []func() (string, error){os.Getwd, os.UserHomeDir} {
		d, err := dir()
		if err != nil {
			continue
		}
		for _, name := range fileNames {
			candidates = append(candidates, filepath.Join(d, name))
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "inspectq", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the configuration file at path, or the one found by Find
// if path is "", and applies environment overrides. A missing
// configuration file is not an error unless path was given.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = Find()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key of cfg with v. viper only consults
// the environment for keys it knows about.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source", cfg.Source)
	v.SetDefault("id_key", cfg.IDKey)
	v.SetDefault("exclude", cfg.Exclude)
	v.SetDefault("protect", cfg.Protect)
	v.SetDefault("db.driver", cfg.DB.Driver)
	v.SetDefault("db.dsn", cfg.DB.DSN)
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("gcs.bucket", cfg.GCS.Bucket)
	v.SetDefault("gcs.prefix", cfg.GCS.Prefix)
	v.SetDefault("gcs.parallelism", cfg.GCS.Parallelism)
	v.SetDefault("plot.width", cfg.Plot.Width)
	v.SetDefault("plot.height", cfg.Plot.Height)
	v.SetDefault("plot.dpi", cfg.Plot.DPI)
	v.SetDefault("plot.bins", cfg.Plot.Bins)
}

// Sources are the valid values of Config.Source.
var Sources = []string{"files", "db", "server", "gcs"}

func (c *Config) validate() error {
	ok := false
	for _, s := range Sources {
		ok = ok || c.Source == s
	}
	if !ok {
		return fmt.Errorf("unknown source %q (want one of %s)", c.Source, strings.Join(Sources, ", "))
	}
	switch c.DB.Driver {
	case "sqlite3", "mysql":
	default:
		return fmt.Errorf("unknown database driver %q", c.DB.Driver)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot size %gx%g must be positive", c.Plot.Width, c.Plot.Height)
	}
	return nil
}
