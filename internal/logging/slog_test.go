package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAnonymizeEmail(t *testing.T) {
	a := AnonymizeEmail("alice@example.com")
	b := AnonymizeEmail("alice@example.com")
	c := AnonymizeEmail("bob@example.com")

	if a != b {
		t.Errorf("same input produced different hashes: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different inputs produced the same hash: %q", a)
	}
	if !strings.HasPrefix(a, "user:") {
		t.Errorf("expected user: prefix, got %q", a)
	}
	if strings.Contains(a, "alice") {
		t.Errorf("anonymized value leaks the address: %q", a)
	}
	if got := AnonymizeEmail(""); got != "unknown" {
		t.Errorf("empty email: got %q, want %q", got, "unknown")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "[empty]" {
		t.Errorf("empty token: got %q", got)
	}
	got := SanitizeToken("ya29.secret-value")
	if strings.Contains(got, "secret") {
		t.Errorf("sanitized token leaks content: %q", got)
	}
	if got != "[token:17 chars]" {
		t.Errorf("got %q, want %q", got, "[token:17 chars]")
	}
}

func TestAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("sync finished",
		Operation("sync_cycle"),
		Account("alice@example.com"),
		List("list-1"),
		Duration(150*time.Millisecond),
		Status(StatusError),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{
		"operation=sync_cycle",
		"list=list-1",
		"status=error",
		"error=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "alice@example.com") {
		t.Errorf("log output leaks email: %s", out)
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(slog.New(slog.NewTextHandler(&buf, nil)), "account_add")
	logger = WithAccount(logger, "alice@example.com")
	logger.Info("added")

	out := buf.String()
	if !strings.Contains(out, "operation=account_add") {
		t.Errorf("missing operation attr: %s", out)
	}
	if strings.Contains(out, "alice@example.com") {
		t.Errorf("log output leaks email: %s", out)
	}
}

func TestErrNil(t *testing.T) {
	attr := Err(nil)
	if attr.Value.String() != "" {
		t.Errorf("nil error should produce empty value, got %q", attr.Value.String())
	}
}
