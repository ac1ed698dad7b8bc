// Package config loads, normalizes, and validates gaelog's TOML
// configuration. Configuration is read once at startup and treated as
// immutable for the lifetime of a tail session.
package config
