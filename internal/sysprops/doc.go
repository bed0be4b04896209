// Package sysprops holds the process-wide property namespace that bootstrap
// configuration is published into. The namespace is written once during
// startup and only read afterwards; Default returns the shared instance.
package sysprops
