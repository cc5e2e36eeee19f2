package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultPropertiesFile is read from the working directory when no config
// file is given.
const DefaultPropertiesFile = "options.properties"

// EnvPrefix applies to nested keys, e.g. PAGEKIT_WAIT_TIMEOUT.
const EnvPrefix = "PAGEKIT"

// topLevelEnv are the historical unprefixed switches. Each resolves from the
// environment first, then from the properties file.
var topLevelEnv = []string{"browser", "headless", "grid", "close"}

// BindEnv wires environment variables into v. Safe to call more than once.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range topLevelEnv {
		_ = v.BindEnv(key, strings.ToUpper(key), EnvPrefix+"_"+strings.ToUpper(key))
	}
}

// ReadFile loads path into v. An empty path looks for options.properties in
// the working directory and tolerates its absence. The format follows the
// file extension; .properties files use Java properties syntax.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		f, err := os.Open(DefaultPropertiesFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		defer f.Close()
		if err := ReadProperties(v, f); err != nil {
			return fmt.Errorf("error reading config file %s: %w", DefaultPropertiesFile, err)
		}
		return nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expanding config path %q: %w", path, err)
	}
	ext := strings.TrimPrefix(filepath.Ext(expanded), ".")
	if isProperties(ext) {
		f, err := os.Open(expanded)
		if err != nil {
			return fmt.Errorf("error reading config file %s: %w", expanded, err)
		}
		defer f.Close()
		if err := ReadProperties(v, f); err != nil {
			return fmt.Errorf("error reading config file %s: %w", expanded, err)
		}
		return nil
	}

	v.SetConfigFile(expanded)
	if ext != "" {
		v.SetConfigType(ext)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", expanded, err)
	}
	return nil
}

func isProperties(ext string) bool {
	switch strings.ToLower(ext) {
	case "properties", "props", "prop":
		return true
	}
	return false
}

// ReadProperties merges Java properties read from r into v. Keys are case
// insensitive and dots nest them, so wait.timeout sets the timeout of the
// wait section.
func ReadProperties(v *viper.Viper, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return err
	}
	settings := make(map[string]any)
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		path := strings.Split(strings.ToLower(key), ".")
		section := settings
		for _, name := range path[:len(path)-1] {
			child, ok := section[name].(map[string]any)
			if !ok {
				child = make(map[string]any)
				section[name] = child
			}
			section = child
		}
		section[path[len(path)-1]] = value
	}
	return v.MergeConfigMap(settings)
}

// Load builds a validated Config from defaults, the file at path and the
// environment, in increasing order of precedence.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return NewConfigFromViper(v)
}
