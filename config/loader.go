package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with the precedence
// defaults → YAML file → environment variables.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("luminar.yaml").
//	    WithEnvPrefix("LUMINAR").
//	    Load()
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a Loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "LUMINAR"}
}

// WithConfigPath sets the YAML file path. An empty path skips file loading.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load builds the configuration and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides struct fields from environment variables. Variable
// names are built from the prefix, the section name, and the field's env
// tag, e.g. LUMINAR_API_SECRET_KEY.
func (l *Loader) applyEnv(cfg *Config) error {
	root := reflect.ValueOf(cfg).Elem()
	rootType := root.Type()

	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		sectionName := strings.ToUpper(rootType.Field(i).Name)
		if section.Kind() != reflect.Struct {
			continue
		}
		if err := l.applyEnvSection(section, l.envPrefix+"_"+sectionName); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) applyEnvSection(section reflect.Value, prefix string) error {
	sectionType := section.Type()
	for i := 0; i < section.NumField(); i++ {
		tag := sectionType.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		name := prefix + "_" + tag
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := setField(section.Field(i), raw); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch field.Interface().(type) {
	case time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

func errMissing(field string) error {
	return fmt.Errorf("config: %s is required", field)
}

func errInvalid(field, reason string) error {
	return fmt.Errorf("config: %s %s", field, reason)
}
