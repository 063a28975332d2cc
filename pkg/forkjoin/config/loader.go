package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat indicates a config file extension with no
// registered decoder.
var ErrUnsupportedFormat = errors.New("unsupported config file extension")

// decoders maps a file extension to the decoder for its format.
var decoders = map[string]func([]byte) (Config, error){
	".yaml": FromYAML,
	".yml":  FromYAML,
	".json": FromJSON,
}

// FromYAML parses YAML engine settings into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON engine settings into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// FromFile loads engine settings from a file, picking the decoder by
// extension (case-insensitive). Unknown extensions fail with
// ErrUnsupportedFormat.
//
// A typical engine config:
//
//	workers: 8
//	max_depth: 32
//	run_id: nightly-batch
//	leaf_retry_attempts: 3
//	leaf_retry_backoff: 500ms
//
// Feed the result to forkjoin.OptionsFromConfig; keys it does not
// recognize are left for the application, so engine and application
// settings can share one file.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return decode(data)
}
