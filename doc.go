// Package main provides the entry point for the postdeck approval service.
// It runs a JSON API on the Fiber framework that resolves team permissions
// (role defaults, custom roles and per-member grant/deny overrides) and drives
// posts through multi-step approval workflows. Persistence uses gorm on
// MySQL, PostgreSQL or SQLite.
package main
