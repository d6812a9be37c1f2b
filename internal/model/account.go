package model

// AccountStatus is the lifecycle state of a connected account.
type AccountStatus string

const (
	// AccountActive means the account has a usable access token.
	AccountActive AccountStatus = "active"
	// AccountExpired means the remote store rejected the token; the
	// account is skipped by the sync engine until reconnected.
	AccountExpired AccountStatus = "expired"
)

// Account is one connected Google Tasks identity.
type Account struct {
	ID      string
	Name    string
	Email   string
	Picture string

	// Token is the OAuth access token. Empty when Status is AccountExpired.
	Token string

	Status AccountStatus
}

// Usable reports whether the sync engine can fetch with this account.
func (a Account) Usable() bool {
	return a.Status == AccountActive && a.Token != ""
}
