// Package config loads, normalizes, and validates clipwatch configuration data.
//
// It supplies repository defaults (including per-platform capture devices),
// expands user paths, reads TOML files, and honours environment fallbacks such
// as CLIPWATCH_NTFY_TOPIC. An optional dotenv file can seed those variables
// before the config is resolved.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a known container/muxer pair, and clear validation errors.
package config
