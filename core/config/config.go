package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	HistoryName       = "history.txt"
	AppLogName        = "app.log"

	SpawnFailureContinue = "continue"
	SpawnFailureAbort    = "abort"

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs  afero.Fs
	configDir string

	LastDirectory      string `json:"last_directory"`
	HistoryLimit       int    `json:"history_limit" validate:"gte=1,lte=100000"`
	LineDelayMillis    int    `json:"line_delay_ms" validate:"gte=0,lte=60000"`
	LineTimeoutSeconds int    `json:"line_timeout_seconds" validate:"gte=0"`
	SpawnFailure       string `json:"spawn_failure" validate:"oneof=continue abort"`
	Color              string `json:"color" validate:"oneof=always auto never"`
	PauseOnExit        bool   `json:"pause_on_exit"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// LineDelay is the pause between two script lines.
func (c *Configuration) LineDelay() time.Duration {
	return time.Duration(c.LineDelayMillis) * time.Millisecond
}

// LineTimeout is the longest a single script line may run, zero is unbounded.
func (c *Configuration) LineTimeout() time.Duration {
	return time.Duration(c.LineTimeoutSeconds) * time.Second
}

// AbortOnSpawnFailure reports whether a line that can't be started stops the
// rest of the script.
func (c *Configuration) AbortOnSpawnFailure() bool {
	return c.SpawnFailure == SpawnFailureAbort
}

// Dir is the directory holding the configuration and its companion files.
func (c *Configuration) Dir() string {
	return c.configDir
}

// HistoryPath is the path of the command-line history file.
func (c *Configuration) HistoryPath() string {
	return filepath.Join(c.configDir, HistoryName)
}

// SetLastDirectory remembers dir as the starting directory of the next run.
func (c *Configuration) SetLastDirectory(dir string) error {
	c.LastDirectory = dir
	return c.Save()
}

// Save writes the configuration back to its directory.
func (c *Configuration) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := c.fs().MkdirAll(c.configDir, 0755); err != nil {
		return err
	}
	return afero.WriteFile(c.fs(), filepath.Join(c.configDir, ConfigurationName), out, 0644)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(filepath.Join(c.configDir, AppLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(filepath.Join(c.configDir, AppLogName), os.O_RDONLY, 0600)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
