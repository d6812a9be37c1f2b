// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute keys shared across the codebase and a small
// set of constructors for common attributes. Account identities are
// anonymized before logging: emails are hashed so lines stay
// correlatable without carrying personal data, and credentials are
// reduced to a length placeholder.
package logging
