package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/crate-digest/internal/rewrite"
)

var (
	// ErrInvalidMatchMode indicates an unsupported selection.match value
	ErrInvalidMatchMode = errors.New("invalid match mode")

	// ErrInvalidLogLevel indicates an unknown log.level value
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogSettings indicates negative rotation limits
	ErrInvalidLogSettings = errors.New("invalid log settings")

	// ErrInvalidPattern indicates an ignore pattern that does not compile
	ErrInvalidPattern = errors.New("invalid ignore pattern")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	// Validate paths configuration
	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	// Validate selection configuration
	if err := validateSelection(&cfg.Selection); err != nil {
		errs = append(errs, err)
	}

	// Validate log configuration
	if err := validateLog(&cfg.Log); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSelection(cfg *SelectionConfig) error {
	if _, err := rewrite.ParseMatchMode(cfg.Match); err != nil {
		return fmt.Errorf("%w: must be 'qualified' or 'bare', got '%s'", ErrInvalidMatchMode, cfg.Match)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		// Numeric slog levels (e.g. -4 for debug) are accepted too.
		if _, err := strconv.Atoi(strings.TrimSpace(cfg.Level)); err == nil {
			break
		}
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Level))
	}

	if cfg.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("%w: max_size cannot be negative, got %d", ErrInvalidLogSettings, cfg.MaxSize))
	}
	if cfg.MaxBackups < 0 {
		errs = append(errs, fmt.Errorf("%w: max_backups cannot be negative, got %d", ErrInvalidLogSettings, cfg.MaxBackups))
	}
	if cfg.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("%w: max_age cannot be negative, got %d", ErrInvalidLogSettings, cfg.MaxAge))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches every wrapped sentinel with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{msg: "validation failed:\n  - " + strings.Join(msgs, "\n  - "), errs: errs}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
