// Package config loads application configuration from YAML files, .env
// files and SCRIBE_* environment variables, and validates the merged
// result.
package config
