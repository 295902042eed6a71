// Package config loads detection settings from YAML files.
//
// A file only needs the keys it changes; everything else keeps the
// detector defaults:
//
//	primitive: circle
//	count: 3
//	circle:
//	  min_support: 50
//	  final_fit: geometric
//	image:
//	  foreground: edges
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/pointio"
)

// Config is the content of a configuration file.
type Config struct {
	detect.Params `yaml:",inline"`

	Image pointio.ImageOptions `yaml:"image"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Params: detect.DefaultParams(),
		Image:  pointio.DefaultImageOptions(),
	}
}

// Load reads the file at path over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the detection parameters.
func (c Config) Validate() error {
	return c.Params.Validate()
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Save writes c to path.
func (c Config) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
