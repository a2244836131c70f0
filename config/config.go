/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads collectionstore settings from YAML, .env files and the environment.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/suparena/collectionstore/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COLLECTIONSTORE_"

// Backend names.
const (
	BackendFirestore = "firestore"
	BackendDynamoDB  = "dynamodb"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

type Config struct {
	Backend   string          `yaml:"backend" validate:"required,oneof=firestore dynamodb sqlite memory"`
	Firestore FirestoreConfig `yaml:"firestore"`
	DynamoDB  DynamoDBConfig  `yaml:"dynamodb"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Handle    HandleConfig    `yaml:"handle"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"projectId"`
	DatabaseID      string `yaml:"databaseId"`
	CredentialsFile string `yaml:"credentialsFile" validate:"omitempty,file"`
	EmulatorHost    string `yaml:"emulatorHost" validate:"omitempty,hostname_port"`
}

type DynamoDBConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey" validate:"required_with=AccessKey"`
	Table     string `yaml:"table"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type HandleConfig struct {
	RetryBackoff  time.Duration `yaml:"retryBackoff" validate:"gte=0"`
	StickyFailure bool          `yaml:"stickyFailure"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Backend: BackendMemory,
		SQLite:  SQLiteConfig{Path: "collectionstore.db"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path (optional), then .env, then COLLECTIONSTORE_*
// environment variables, and validates the result. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"BACKEND":                    &c.Backend,
		"FIRESTORE_PROJECT_ID":       &c.Firestore.ProjectID,
		"FIRESTORE_DATABASE_ID":      &c.Firestore.DatabaseID,
		"FIRESTORE_CREDENTIALS_FILE": &c.Firestore.CredentialsFile,
		"FIRESTORE_EMULATOR_HOST":    &c.Firestore.EmulatorHost,
		"DYNAMODB_REGION":            &c.DynamoDB.Region,
		"DYNAMODB_ACCESS_KEY":        &c.DynamoDB.AccessKey,
		"DYNAMODB_SECRET_KEY":        &c.DynamoDB.SecretKey,
		"DYNAMODB_TABLE":             &c.DynamoDB.Table,
		"DYNAMODB_ENDPOINT":          &c.DynamoDB.Endpoint,
		"SQLITE_PATH":                &c.SQLite.Path,
		"LOG_LEVEL":                  &c.Log.Level,
		"LOG_FORMAT":                 &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"HANDLE_STICKY_FAILURE": &c.Handle.StickyFailure,
		"METRICS_ENABLED":       &c.Metrics.Enabled,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.NewValidationError(EnvPrefix+key, fmt.Sprintf("invalid boolean %q", v))
			}
			*dst = b
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "HANDLE_RETRY_BACKOFF"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"HANDLE_RETRY_BACKOFF", fmt.Sprintf("invalid duration %q", v))
		}
		c.Handle.RetryBackoff = d
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report yaml names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(backendRequirements, Config{})
	return v
}

// backendRequirements checks the settings the selected backend cannot do without.
func backendRequirements(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	switch c.Backend {
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			sl.ReportError(c.DynamoDB.Table, "dynamodb.table", "Table", "required_for_backend", c.Backend)
		}
		if c.DynamoDB.Region == "" {
			sl.ReportError(c.DynamoDB.Region, "dynamodb.region", "Region", "required_for_backend", c.Backend)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			sl.ReportError(c.SQLite.Path, "sqlite.path", "Path", "required_for_backend", c.Backend)
		}
	}
}

// Validate checks field constraints and backend-specific requirements.
// Every violation is reported as an errors.ValidationError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errors.NewValidationError(fieldName(fe), msgForTag(fe)))
	}
	return stderrors.Join(out...)
}

// fieldName drops the leading "Config." from the validator namespace.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return fmt.Sprintf("is required when %s is set", fe.Param())
	case "required_for_backend":
		return fmt.Sprintf("is required for backend %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "file":
		return "must be an existing file"
	case "hostname_port":
		return "must be host:port"
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
