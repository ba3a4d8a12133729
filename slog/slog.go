// Package slog decorates revex services with structured logging.
package slog
