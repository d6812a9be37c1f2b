package logging

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"
)

// Attribute keys used across the codebase for structured logging.
const (
	KeyOperation = "operation"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyList      = "list"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values for the KeyStatus attribute.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation name attached.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithAccount returns a logger with an anonymized account identity attached.
func WithAccount(logger *slog.Logger, email string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, AnonymizeEmail(email)))
}

// Operation returns an attribute for the operation name.
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Account returns an attribute with an anonymized account identity.
func Account(email string) slog.Attr {
	return slog.String(KeyAccount, AnonymizeEmail(email))
}

// List returns an attribute for a task list identifier.
func List(id string) slog.Attr {
	return slog.String(KeyList, id)
}

// Status returns an attribute for an operation outcome.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Duration returns an attribute for an operation duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns an attribute for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable anonymized form of an email address
// suitable for logging. The same input always produces the same output,
// so log lines remain correlatable without exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return "unknown"
	}
	sum := sha256.Sum256([]byte(email))
	return fmt.Sprintf("user:%x", sum[:4])
}

// UserHash returns an attribute with an anonymized user identity.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken replaces a credential with a placeholder that only
// reveals its length. Tokens must never appear in logs verbatim.
func SanitizeToken(token string) string {
	if token == "" {
		return "[empty]"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
