// Package google implements the OAuth flow for connecting Google
// accounts: authorization URL, code exchange, and resolving a token to
// the profile (email, name, picture) that identifies the account.
package google
