// Package config loads and validates the lingsync TOML configuration file.
package config
