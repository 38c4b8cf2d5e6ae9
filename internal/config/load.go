package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// ErrConfigValidation wraps validation failures, as opposed to syntax or filesystem errors.
var ErrConfigValidation = errors.New("config validation failed")

// ResolvePath picks the config path: the explicit flag value, then the environment,
// then DefaultPath. explicit reports whether the caller named the file.
func ResolvePath(flagValue string) (path string, explicit bool) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(os.Getenv(EnvPath)); v != "" {
		return v, true
	}
	return DefaultPath, false
}

// Load reads and validates the config at path. A missing file yields defaults
// unless the path was named explicitly.
func Load(path string, explicit bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf(messages.ConfigReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults, rejecting unknown keys, and validates the result.
// source is used in error messages.
func Parse(data []byte, source string) (Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return Config{}, fmt.Errorf("%w: "+messages.ConfigUnknownKeysFmt, ErrConfigValidation, source, strictErr.String())
		}
		return Config{}, fmt.Errorf(messages.ConfigInvalidFmt, source, err)
	}
	if err := cfg.Validate(source); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}
