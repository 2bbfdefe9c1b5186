// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package config loads the settings of the recent activity extraction from
// a YAML file and RECENTACTIVITY_ environment variables.
package config

import (
	"os"
	"strings"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// RECENTACTIVITY_TEMP_DIR.
const EnvPrefix = "RECENTACTIVITY"

// Config holds the settings of an extraction run.
type Config struct {
	ModuleName         string            `mapstructure:"module_name" yaml:"module_name"`
	TempDir            string            `mapstructure:"temp_dir" yaml:"temp_dir"`
	Tools              map[string]string `mapstructure:"tools" yaml:"tools"`
	ToolArgs           []string          `mapstructure:"tool_args" yaml:"tool_args"`
	IgnoredURLPrefixes []string          `mapstructure:"ignored_url_prefixes" yaml:"ignored_url_prefixes"`
	DateFormat         string            `mapstructure:"date_format" yaml:"date_format"`
	Routines           []string          `mapstructure:"routines" yaml:"routines,omitempty"`
}

// Default returns the built in settings.
func Default() *Config {
	return &Config{
		ModuleName:         "Recent Activity",
		TempDir:            os.TempDir(),
		Tools:              map[string]string{},
		ToolArgs:           []string{"-T", "history"},
		IgnoredURLPrefixes: []string{"res://"},
		DateFormat:         datamodel.TimeFormat,
	}
}

// Load reads the config file at path, applies environment overrides and
// fills everything else with the defaults. An empty path only uses the
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"module_name", "temp_dir", "date_format"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read config %s", path)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "could not decode config")
	}
	if err := mergo.Merge(c, Default()); err != nil {
		return nil, err
	}
	return c, nil
}

// Enabled reports whether a routine should run. No explicit routine list
// enables all routines.
func (c *Config) Enabled(routine string) bool {
	if len(c.Routines) == 0 {
		return true
	}
	for _, r := range c.Routines {
		if strings.EqualFold(r, routine) {
			return true
		}
	}
	return false
}

// YAML encodes the config as it would be written to a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	b, err := c.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}
