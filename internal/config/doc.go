// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Besides the HTTP server settings it carries
// the bootstrap overrides (CATALINA_CONFIG, CATALINA_BASE, CATALINA_HOME) that
// decide where catalina.properties is read from.
package config
