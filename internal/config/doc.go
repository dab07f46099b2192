// Package config loads, normalizes, and validates gifrelay configuration data.
//
// It supplies repository defaults, loads a .env file, reads TOML files, and
// honours environment variables such as SEGMIND_API_URL, SEGMIND_API_KEY, and
// PORT. The Config type is built once at startup and handed to the relay and
// the capture client as an immutable value; nothing mutates it afterwards.
//
// Always obtain settings through this package so downstream code receives
// trimmed URLs, absolute artifact paths, and clear validation errors.
package config
