package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/gtaskall/gtaskall/internal/model"
)

// redirectOOB is the out-of-band redirect used for the copy-paste
// console flow.
const redirectOOB = "urn:ietf:wg:oauth:2.0:oob"

// Scopes requested when connecting an account. Tasks access plus the
// profile fields used to identify the account in the UI.
var scopes = []string{
	tasks.TasksScope,
	goauth2.UserinfoEmailScope,
	goauth2.UserinfoProfileScope,
}

// Authenticator runs the authorization-code flow for connecting a
// Google account and resolves the resulting token to a profile.
type Authenticator struct {
	conf      *oauth2.Config
	extraOpts []option.ClientOption
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithRedirectURL overrides the out-of-band redirect.
func WithRedirectURL(u string) Option {
	return func(a *Authenticator) { a.conf.RedirectURL = u }
}

// WithEndpoint overrides the OAuth endpoint, used by tests.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(a *Authenticator) { a.conf.Endpoint = e }
}

// WithClientOptions appends options for the userinfo API client, used
// by tests to point at a fake server.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(a *Authenticator) { a.extraOpts = append(a.extraOpts, opts...) }
}

// NewAuthenticator creates an authenticator for the given OAuth client.
// Credentials come from configuration; nothing is read from or written
// to disk here, tokens live in the account registry.
func NewAuthenticator(clientID, clientSecret string, opts ...Option) *Authenticator {
	a := &Authenticator{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectOOB,
			Scopes:       scopes,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuthURL returns the URL the user opens to authorize access.
func (a *Authenticator) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// Profile resolves a token to the account it belongs to. The returned
// account carries the token and is ready to add to the registry.
func (a *Authenticator) Profile(ctx context.Context, token *oauth2.Token) (model.Account, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	}, a.extraOpts...)

	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return model.Account{}, fmt.Errorf("creating userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return model.Account{}, fmt.Errorf("fetching user profile: %w", err)
	}
	if info.Email == "" {
		return model.Account{}, fmt.Errorf("user profile has no email address")
	}

	return model.Account{
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
		Token:   token.AccessToken,
		Status:  model.AccountActive,
	}, nil
}
