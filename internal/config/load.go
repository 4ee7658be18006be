package config

import (
	"fmt"
	"io/fs"
)

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	fs     FileSystem
	lookup LookupFunc
	noEnv  bool
}

// WithFS reads the file from fsys instead of the OS.
func WithFS(fsys FileSystem) LoadOption {
	return func(o *loadOptions) { o.fs = fsys }
}

// WithEnv reads overrides through lookup instead of os.LookupEnv.
func WithEnv(lookup LookupFunc) LoadOption {
	return func(o *loadOptions) { o.lookup = lookup }
}

// WithoutEnv ignores environment overrides.
func WithoutEnv() LoadOption {
	return func(o *loadOptions) { o.noEnv = true }
}

// Load merges the defaults, the file at path and the environment, then
// decodes and validates the result. An empty path skips the file layer; a
// named file that does not exist is an error wrapping fs.ErrNotExist.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{fs: OSFS{}}
	for _, opt := range opts {
		opt(&o)
	}

	merged := Defaults()
	if path != "" {
		loader, err := LoaderFor(o.fs, path)
		if err != nil {
			return nil, err
		}
		fileCfg, err := loader.LoadFrom(path)
		if err != nil {
			return nil, err
		}
		if fileCfg == nil {
			return nil, fmt.Errorf("config file %s: %w", path, fs.ErrNotExist)
		}
		merged = DeepMerge(merged, fileCfg)
	}
	if !o.noEnv {
		merged = DeepMerge(merged, NewEnvLoader(o.lookup).Load())
	}

	cfg, err := Decode(merged)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", describe(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", describe(path), err)
	}
	return cfg, nil
}

func describe(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
