// Package ui renders human-readable console output for migration runs.
//
// It adapts shell command lifecycle events and transformation pipeline
// progress into concise log lines so that run feedback remains actionable for
// CLI users while detailed telemetry continues to flow through structured
// loggers.
package ui
