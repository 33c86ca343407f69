package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// DefaultDir is the directory next to the running executable.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Load loads the configuration from the directory.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	// Fields missing from the file keep their default values.
	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	out.configFs = fsys
	out.configDir = path
	return out, nil
}

// Initialize writes the default configuration to dir unless one already
// exists, then loads it.
func Initialize(fsys afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch exists, err := afero.Exists(fsys, configPath); {
	case err != nil:
		return nil, err
	case exists:
		logger.Printf("Config already exists at %s\n", configPath)
	default:
		logger.Printf("Writing default config to %s\n", configPath)
		if err := afero.WriteFile(fsys, configPath, defaultConfigData, 0644); err != nil {
			return nil, err
		}
	}

	return Load(fsys, dir)
}

// LoadOrInitialize loads the configuration in dir, creating a default one if
// none exists yet. If the default can't be written the defaults are used for
// this run anyway.
func LoadOrInitialize(fsys afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	cfg, err := Load(fsys, dir)
	if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	cfg, err = Initialize(fsys, dir, logger)
	if err != nil {
		logger.Printf("Failed to save config, using defaults: %v\n", err)
		cfg = defaultConfig()
		cfg.configFs = fsys
		cfg.configDir = dir
	}
	return cfg, nil
}
