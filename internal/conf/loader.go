// Package conf loads typed configuration from the environment, optionally
// overlaid on a config file, and validates the result.
package conf

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Loader reads configuration into a struct annotated with cleanenv `env`
// tags and go-playground `validate` tags. Environment variables win over
// file values.
type Loader struct {
	fileName string
	validate *validator.Validate
}

// Option configures a Loader.
type Option func(*Loader)

// WithFile sets a config file to read beneath the environment. A missing
// file is an error; pass the option only when the file should exist.
func WithFile(fileName string) Option {
	return func(l *Loader) {
		l.fileName = fileName
	}
}

// NewLoader creates a Loader. With no options it reads only the environment,
// falling back to a `.env` file when one exists in the working directory.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{validate: validator.New()}
	for _, opt := range opts {
		opt(l)
	}
	if l.fileName == "" {
		if _, err := os.Stat(".env"); err == nil {
			l.fileName = ".env"
		}
	}
	return l
}

// Load populates cfg, which must be a pointer to struct.
func (l *Loader) Load(cfg interface{}) error {
	if reflect.ValueOf(cfg).Kind() != reflect.Ptr {
		return fmt.Errorf("configuration must be a pointer to struct, got %T", cfg)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if l.fileName != "" {
		if err := l.mergeFile(cfg); err != nil {
			return err
		}
	}

	if err := l.validate.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("validate configuration: %w", err)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func (l *Loader) mergeFile(cfg interface{}) error {
	// Read the file into a fresh copy, then let already-set env values win.
	fileCfg := reflect.New(reflect.ValueOf(cfg).Elem().Type()).Interface()

	if err := cleanenv.ReadConfig(l.fileName, fileCfg); err != nil {
		return fmt.Errorf("read config file %s: %w", l.fileName, err)
	}

	if err := mergo.Merge(cfg, fileCfg); err != nil {
		return fmt.Errorf("merge config file %s: %w", l.fileName, err)
	}

	return nil
}
