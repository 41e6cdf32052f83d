// Package config provides configuration loading and validation for the
// meeting recorder service. It handles YAML-based configuration with
// per-section validation.
package config
