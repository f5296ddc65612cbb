package config

import "fmt"

// ConfigurationError represents a structured error produced while resolving
// the run configuration from flags and environment variables. It is fatal:
// no test runs after one is reported, and the process exits with the
// configuration error code.
type ConfigurationError struct {
	// Flag is the offending flag name, including dashes, if one applies.
	Flag string
	// Value is the rejected input value, if one applies.
	Value string
	// Message is the human-readable error message.
	Message string
}

// Error implements the error interface.
func (ce *ConfigurationError) Error() string {
	return ce.Message
}

// newPositiveIntError reports a flag or environment value that must have
// been a positive integer.
func newPositiveIntError(flag, value string) *ConfigurationError {
	return &ConfigurationError{
		Flag:    flag,
		Value:   value,
		Message: fmt.Sprintf("argument %s: requires positive integer, but found '%s'", flag, value),
	}
}

// newFlagError reports any other rejected flag combination or value.
func newFlagError(flag, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{
		Flag:    flag,
		Message: fmt.Sprintf(format, args...),
	}
}
