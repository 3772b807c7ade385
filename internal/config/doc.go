// Package config loads and validates the YAML analysis configuration.
//
// config.go defines the schema (trigger sources, parameter grids, stopping
// condition, output and status-server settings, round-quality alert rules)
// with Load applying defaults and structural validation before anything else
// runs. Secrets — API keys and webhook URLs — are referenced indirectly via
// environment variable names, never stored in the file.
//
// watch.go monitors the config file with fsnotify for the CLI's re-run mode.
package config
