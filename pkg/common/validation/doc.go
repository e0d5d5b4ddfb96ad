// Package validation provides common validation utilities for configuration
// parameters across the taskpool packages.
//
// The helpers return *errors.ValidationError values so constructors report
// bad arguments with a consistent message and hint.
package validation
