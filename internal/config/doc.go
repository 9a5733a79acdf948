// Package config loads, normalizes, and validates captionify configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY, PORT, and RENDER_EXTERNAL_URL. The Config type centralizes
// every knob the server and CLI need, so upload/output directories and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
