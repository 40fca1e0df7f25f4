// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNoConfigFile is returned by getConfigPath when none of the standard
// locations hold a placectl.yaml.
var ErrNoConfigFile = errors.New("no config file found in standard locations")

// Formats are the response formats the places API can produce.
var Formats = []string{"xml", "json"}

// Config is the complete placectl configuration.
type Config struct {
	// Source is the file the config was loaded from. Empty when running on
	// defaults and environment only.
	Source string `yaml:"-"`

	API    API    `yaml:"api"`
	Cache  Cache  `yaml:"cache"`
	Output string `yaml:"output" validate:"oneof=text json yaml raw"`
	Color  bool   `yaml:"color"`
	Titles bool   `yaml:"titles"`

	// Padding is the number of spaces between text table columns.
	Padding int    `yaml:"padding" validate:"gte=0"`
	Colors  Colors `yaml:"colors"`

	// Sets are named argument presets per command, spliced in with @name.
	// A set called "defaults" applies when no @name is given.
	Sets map[string]map[string][]string `yaml:"sets"`
}

// Colors are the text table colors used when color is on.
type Colors struct {
	Title string `yaml:"title"`
	Even  string `yaml:"even"`
	Odd   string `yaml:"odd"`
}

// API describes how to reach the places search endpoint.
type API struct {
	Key      string `yaml:"key"`
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	Format   string `yaml:"format" validate:"oneof=xml json"`
	Referer  string `yaml:"referer"`
	// ConnectTimeout bounds connection setup only, in seconds.
	ConnectTimeout     int  `yaml:"connect_timeout" validate:"gt=0"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Cache controls the response cache.
type Cache struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend" validate:"oneof=file s3"`
	Dir     string `yaml:"dir" validate:"required_if=Backend file"`
	// DateFormat is a Go reference layout. It must not contain "_", which
	// separates the digest from the timestamp in entry names, or a path
	// separator.
	DateFormat string `yaml:"date_format" validate:"required,excludes=_,excludes=/,excludes=\\"`
	// TTL is the freshness window in seconds.
	TTL    int    `yaml:"ttl" validate:"gte=0"`
	Digest string `yaml:"digest" validate:"oneof=md5 sha1 sha256"`
	S3     S3     `yaml:"s3"`
}

// S3 locates a bucket-backed cache.
type S3 struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

// ArgSet returns the preset arguments for command, each entry split on
// whitespace.
func (c *Config) ArgSet(command, name string) []string {
	var args []string
	for _, entry := range c.Sets[command][name] {
		args = append(args, strings.Fields(entry)...)
	}
	return args
}

// HasArgSet reports whether sets.<command>.<name> is defined.
func (c *Config) HasArgSet(command, name string) bool {
	_, ok := c.Sets[command][name]
	return ok
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration.
func (a API) ConnectTimeoutDuration() time.Duration {
	return time.Duration(a.ConnectTimeout) * time.Second
}

// Window returns the freshness window as a time.Duration.
func (c Cache) Window() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		API: API{
			Endpoint:           "https://maps.googleapis.com/maps/api/place/textsearch",
			Format:             "xml",
			ConnectTimeout:     30,
			InsecureSkipVerify: true,
		},
		Cache: Cache{
			Enabled:    true,
			Backend:    "file",
			Dir:        defaultCacheDir(),
			DateFormat: "20060102150405",
			TTL:        3600,
			Digest:     "md5",
			S3: S3{
				Prefix: "placectl",
			},
		},
		Output:  "text",
		Padding: 2,
		Colors: Colors{
			Title: "#f6be00",
			Even:  "#ffffff",
			Odd:   "#00c8f0",
		},
	}
}

// Load reads placectl.yaml, either from the explicit path or from the first
// standard location that has one, and layers environment overrides on top.
// Running without any config file is allowed and yields the defaults.
func Load(cfgFilePath ...string) (*Config, error) {
	var path string
	if len(cfgFilePath) > 0 && cfgFilePath[0] != "" {
		path = cfgFilePath[0]
	} else {
		p, err := getConfigPath()
		switch {
		case errors.Is(err, ErrNoConfigFile):
			log.Debug("no config file, using defaults")
		case err != nil:
			return nil, err
		}
		path = p
	}

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(raw))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Cache.Backend == "s3" && c.Cache.S3.Bucket == "" {
		return errors.New("invalid config: cache.s3.bucket is required when cache.backend is s3")
	}

	if _, err := time.Parse(c.Cache.DateFormat, time.Now().UTC().Format(c.Cache.DateFormat)); err != nil {
		return fmt.Errorf("invalid config: cache.date_format %q does not round-trip: %w", c.Cache.DateFormat, err)
	}

	return nil
}

// applyEnv layers PLACECTL_* environment variables over the loaded values.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PLACECTL_API_KEY"); ok && v != "" {
		cfg.API.Key = v
	}
	if v, ok := os.LookupEnv("PLACECTL_CACHE_DIR"); ok && v != "" {
		cfg.Cache.Dir = v
	}
	// PLACECTL_CACHE can only turn the cache off.
	if v, ok := os.LookupEnv("PLACECTL_CACHE"); ok && (v == "0" || strings.EqualFold(v, "false")) {
		cfg.Cache.Enabled = false
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "placectl")
	}
	return "./cache"
}

func getConfigPath() (string, error) {
	if p, ok := os.LookupEnv("PLACECTL_CFG"); ok && p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if info.IsDir() {
			return "", fmt.Errorf("PLACECTL_CFG points to a directory: %s", p)
		}
		log.Debugf("using config file: %s", p)
		return p, nil
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, "placectl.yaml")
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", ErrNoConfigFile
}
