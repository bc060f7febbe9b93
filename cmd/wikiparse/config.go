package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"

	"github.com/wikiforge/wikiparse/pkg/profiles"
	v "github.com/wikiforge/wikiparse/pkg/validator"
	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"go.yaml.in/yaml/v4"
)

const defaultConfigFile = "wikiparse.config.yaml"

type cliConfig struct {
	Profile    string   `yaml:"profile,omitempty"`
	Mode       string   `yaml:"mode,omitempty"`
	ExtraTags  []string `yaml:"extra_tags,omitempty"`
	VoidTags   []string `yaml:"void_tags,omitempty"`
	ProfileDir string   `yaml:"profile_dir,omitempty"`
	Workers    int      `yaml:"workers,omitempty"`
}

func defaultConfig() cliConfig {
	return cliConfig{
		Profile: "mediawiki",
		Workers: runtime.NumCPU(),
	}
}

func (c cliConfig) Validate() error {
	tagName := func(tag, desc string) error {
		return v.Satisfies(tag, wikitext.ValidTagName, desc, "a tag name")
	}
	var modeErr error
	if c.Mode != "" {
		_, modeErr = wikitext.ParseMode(c.Mode)
	}
	return v.All(
		v.NotEmpty(c.Profile, "profile"),
		modeErr,
		v.Map(c.ExtraTags, tagName, "extra_tags"),
		v.Map(c.VoidTags, tagName, "void_tags"),
		v.Positive(c.Workers, "workers"),
	)
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (cliConfig, error) {
	cfg := defaultConfig()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config file: %w", err)
	}
	return cfg, nil
}

// parser resolves the configured profile and applies the config overrides.
func (c cliConfig) parser() (*wikitext.Parser, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	profiles.SetProfileDir(c.ProfileDir)
	p, err := profiles.Get(c.Profile)
	if err != nil {
		return nil, err
	}
	if c.Mode != "" {
		p.Mode = c.Mode
	}
	if c.VoidTags != nil {
		p.VoidTags = c.VoidTags
	}
	opts, err := p.Options(c.ExtraTags...)
	if err != nil {
		return nil, err
	}
	return wikitext.NewParser(opts)
}
