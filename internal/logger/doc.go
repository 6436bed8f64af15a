// Package logger configures the global zerolog logger: level split console and
// rolling file writers plus a prometheus counter of log statements per level.
package logger
