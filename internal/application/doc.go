// Package application provides application initialization and dependency wiring.
// It runs the one-time bootstrap properties load and builds the inspection
// handlers, router, and HTTP server around the result, keeping the main
// package focused on CLI parsing and orchestration.
package application
