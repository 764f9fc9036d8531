package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateAPIConfig(&cfg.API)
	v.validateChunkerConfig(&cfg.Chunker)
	v.validateContextualizerConfig(&cfg.Contextualizer)
	v.validateReviewConfig(&cfg.Review)
	v.validateServerConfig(&cfg.Server)
	v.validateLoggingConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateAPIConfig(cfg *APIConfig) {
	switch cfg.Provider {
	case "openai", "deepseek", "azure":
	default:
		v.addError("api.provider", fmt.Sprintf("unsupported provider: %q", cfg.Provider))
	}
	if cfg.Model == "" {
		v.addError("api.model", "model must not be empty")
	}
	if cfg.Timeout < 0 {
		v.addError("api.timeout", "timeout must not be negative")
	}
	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		v.addError("api.temperature", "temperature must be in [0, 2]")
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens < 1 {
		v.addError("api.max_tokens", "max_tokens must be >= 1")
	}
}

func (v *Validator) validateChunkerConfig(cfg *ChunkerConfig) {
	if cfg.MaxChars < 1 {
		v.addError("chunker.max_chars", "max_chars must be >= 1")
	}
	if cfg.OverlapChars < 0 {
		v.addError("chunker.overlap_chars", "overlap_chars must not be negative")
	}
	if cfg.OverlapChars >= cfg.MaxChars && cfg.MaxChars >= 1 {
		v.addError("chunker.overlap_chars", "overlap_chars must be smaller than max_chars")
	}
}

func (v *Validator) validateContextualizerConfig(cfg *ContextualizerConfig) {
	if cfg.MaxConcurrent < 1 {
		v.addError("contextualizer.max_concurrent", "max_concurrent must be >= 1")
	}
	if cfg.MaxTokens < 1 {
		v.addError("contextualizer.max_tokens", "max_tokens must be >= 1")
	}
	switch cfg.OnError {
	case OnErrorFallback, OnErrorFail:
	default:
		v.addError("contextualizer.on_error", fmt.Sprintf("must be %q or %q", OnErrorFallback, OnErrorFail))
	}
}

func (v *Validator) validateReviewConfig(cfg *ReviewConfig) {
	if cfg.MaxConcurrent < 1 {
		v.addError("review.max_concurrent", "max_concurrent must be >= 1")
	}
	if cfg.DiffTimeout <= 0 {
		v.addError("review.diff_timeout", "diff_timeout must be positive")
	}
	if cfg.MaxDiffBytes < 1 {
		v.addError("review.max_diff_bytes", "max_diff_bytes must be >= 1")
	}
}

func (v *Validator) validateServerConfig(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address must not be empty")
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		v.addError("server.address", fmt.Sprintf("invalid address: %v", err))
	}
	if cfg.ReadTimeout < 0 {
		v.addError("server.read_timeout", "read_timeout must not be negative")
	}
	if cfg.WriteTimeout < 0 {
		v.addError("server.write_timeout", "write_timeout must not be negative")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("unknown log level: %q", cfg.Level))
	}
}
