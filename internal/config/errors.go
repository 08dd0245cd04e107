package config

import "errors"

// ErrInvalidValue is returned for config values that fail validation.
var ErrInvalidValue = errors.New("invalid config value")
