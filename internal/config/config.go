package config

import (
	"fmt"
	"os"
	"time"

	"github.com/brogergvhs/mangasee/internal/mangasee"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output       string        `yaml:"output"`
	ChapterLimit int           `yaml:"chapter_limit"`
	PageWorkers  int           `yaml:"page_workers"`
	Timeout      time.Duration `yaml:"timeout"`
	Verbose      bool          `yaml:"verbose"`
	CBZ          bool          `yaml:"cbz"`

	Origin           string `yaml:"origin"`
	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`
}

// Options carries CLI flags. Zero values leave the loaded config alone.
type Options struct {
	IgnoreConfig     bool
	Verbose          bool
	Output           string
	ChapterLimit     int
	PageWorkers      int
	Timeout          time.Duration
	CBZ              bool
	Origin           string
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
}

const (
	DefaultOrigin  = mangasee.DefaultOrigin
	DefaultTimeout = mangasee.DefaultTimeout
)

func DefaultConfig() *Config {
	return &Config{
		Output:  ".",
		Timeout: DefaultTimeout,
		Origin:  DefaultOrigin,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged returns the active profile with CLI options applied on top,
// and a description of where it came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory; run `mangasee config init` to create one)", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ChapterLimit != 0 {
		c.ChapterLimit = o.ChapterLimit
	}
	if o.PageWorkers != 0 {
		c.PageWorkers = o.PageWorkers
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.Verbose {
		c.Verbose = true
	}
	if o.CBZ {
		c.CBZ = true
	}
	if o.Origin != "" {
		c.Origin = o.Origin
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Origin == "" {
		c.Origin = DefaultOrigin
	}
	if c.ChapterLimit < 0 {
		c.ChapterLimit = 0
	}
	if c.PageWorkers < 0 {
		c.PageWorkers = 0
	}
}

func (c *Config) Print() {
	fmt.Printf(" -output: %s\n", c.Output)
	if c.ChapterLimit > 0 {
		fmt.Printf(" -chapter_limit: %d\n", c.ChapterLimit)
	} else {
		fmt.Println(" -chapter_limit: unlimited")
	}
	if c.PageWorkers > 0 {
		fmt.Printf(" -page_workers: %d\n", c.PageWorkers)
	}
	fmt.Printf(" -timeout: %s\n", c.Timeout)
	if c.Verbose {
		fmt.Printf(" -verbose: %t\n", c.Verbose)
	}
	if c.CBZ {
		fmt.Printf(" -cbz: %t\n", c.CBZ)
	}
	if c.Origin != DefaultOrigin {
		fmt.Printf(" -origin: %s\n", c.Origin)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
}
