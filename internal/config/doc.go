// Package config loads, normalizes, and validates sebasite configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SEBASITE_RECORD_STORE_API_KEY. The Config type centralizes every knob the
// service and CLI need, so the record store, local fallback cache, image
// pipeline, and contact relay are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical driver names, and clear validation errors.
package config
