// Package configutil reads layered json5 configuration files and applies environment
// overrides on top of them.
package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// localPath turns config.json5 into config.local.json5.
func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readJson5[T any](path string) (T, bool, error) {
	var out T
	buff, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(strings.TrimSpace(string(buff))) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(buff, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads `name` and merges `<name>.local.<ext>` over it, non-zero fields of
// the local file win. Neither file existing is not an error, the zero value is returned
// so that a deployment can be configured purely from the environment.
func ReadConfig[T any](name string) (T, error) {
	out, _, err := readJson5[T](name)
	if err != nil {
		return out, err
	}

	local := localPath(name)
	override, found, err := readJson5[T](local)
	if err != nil {
		return out, err
	}
	if found {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", local, err)
		}
		slog.Info("merging config with local overrides", "local", local)
	}

	return out, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process environment
// without overwriting variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		_, err := os.Stat(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		err = godotenv.Load(f)
		if err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
		slog.Debug("loaded environment file", "file", f)
	}
	return nil
}

// Env applies environment variable overrides to config fields. Lookups go through
// Getenv so tests can supply a map.
type Env struct {
	Getenv func(key string) string
	errs   []error
}

func OSEnv() *Env {
	return &Env{Getenv: os.Getenv}
}

func MapEnv(values map[string]string) *Env {
	return &Env{Getenv: func(key string) string { return values[key] }}
}

func (e *Env) String(dst *string, key string) {
	value := e.Getenv(key)
	if value != "" {
		*dst = value
	}
}

func (e *Env) Int(dst *int, key string) {
	value := e.Getenv(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (e *Env) Bool(dst *bool, key string) {
	value := e.Getenv(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

// Err returns every malformed value seen so far.
func (e *Env) Err() error {
	return errors.Join(e.errs...)
}
