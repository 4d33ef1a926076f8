// Package config loads and validates the shakerwatch-server YAML
// configuration, and can watch the file for changes so dashboard display
// defaults apply without a restart.
package config
