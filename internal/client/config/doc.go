// Package config holds the purchase client settings. Values come from
// defaults, then an optional JSON or YAML file, then command-line flags.
package config
