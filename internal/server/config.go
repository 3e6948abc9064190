// config.go - Environment configuration loading and validation.
//
// Validates all environment variables at startup to fail fast with
// clear error messages rather than runtime failures.
package server

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the server needs to run. All values come from
// the environment; see LoadConfig for the variable names.
type Config struct {
	Addr           string // e.g. ":8080"
	BaseURL        string // public origin used in share links when the request carries none
	MaxUploadBytes int64  // 0 = no limit

	DatabaseURL string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	Bucket      string
}

// LoadConfig reads the FS_* environment variables, validates them and
// returns the assembled configuration.
func LoadConfig() (Config, error) {
	v := newConfigValidator()

	cfg := Config{
		Addr:        getenvDefault("FS_ADDR", ":8080"),
		BaseURL:     getenvDefault("FS_BASE_URL", ""),
		DatabaseURL: v.validateRequired("DATABASE_URL"),
		S3Endpoint:  v.validateRequired("FS_S3_ENDPOINT"),
		S3AccessKey: v.validateRequired("FS_S3_ACCESS_KEY"),
		S3SecretKey: v.validateRequired("FS_S3_SECRET_KEY"),
		Bucket:      v.validateRequired("FS_BUCKET"),
	}

	if cfg.DatabaseURL != "" &&
		!strings.HasPrefix(cfg.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		v.addError("DATABASE_URL", "must be a valid PostgreSQL connection string")
	}

	v.validatePort("FS_ADDR", cfg.Addr)
	v.validateURL("FS_BASE_URL", cfg.BaseURL)

	if raw := os.Getenv("FS_MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			v.addError("FS_MAX_UPLOAD_BYTES", "must be a non-negative integer")
		} else {
			cfg.MaxUploadBytes = n
		}
	}

	if v.hasErrors() {
		return Config{}, fmt.Errorf("%s", v.errorString())
	}
	return cfg, nil
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

type configValidationError struct {
	Field   string
	Message string
}

func (e configValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

type configValidator struct {
	errors []configValidationError
}

func newConfigValidator() *configValidator {
	return &configValidator{errors: make([]configValidationError, 0)}
}

func (v *configValidator) addError(field, message string) {
	v.errors = append(v.errors, configValidationError{Field: field, Message: message})
}

func (v *configValidator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *configValidator) errorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// validateRequired checks that a required environment variable is set and
// returns its value.
func (v *configValidator) validateRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		v.addError(key, "required environment variable not set")
	}
	return value
}

func (v *configValidator) validateURL(key, value string) {
	if value == "" {
		return
	}
	parsed, err := url.Parse(value)
	if err != nil {
		v.addError(key, fmt.Sprintf("invalid URL format: %v", err))
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		v.addError(key, "URL must use http or https scheme")
	}
}

func (v *configValidator) validatePort(key, value string) {
	if value == "" {
		return
	}

	// Accept the ":port" form used by net/http.
	portStr := strings.TrimPrefix(value, ":")

	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.addError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.addError(key, "port must be between 1 and 65535")
	}
}
