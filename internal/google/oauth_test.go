package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func TestAuthURL(t *testing.T) {
	a := NewAuthenticator("client-id", "client-secret")
	raw := a.AuthURL("state-token")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "auth/tasks")
	assert.Contains(t, q.Get("scope"), "userinfo.email")
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	a := NewAuthenticator("client-id", "client-secret",
		WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}))

	token, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token.AccessToken)

	_, err = a.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "exchanging authorization code"))
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "userinfo") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"email":"alice@example.com","name":"Alice","picture":"https://example.com/a.png"}`)
	}))
	defer srv.Close()

	a := NewAuthenticator("client-id", "client-secret",
		WithClientOptions(option.WithEndpoint(srv.URL)))

	acc, err := a.Profile(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Equal(t, "Alice", acc.Name)
	assert.Equal(t, "tok", acc.Token)
	assert.True(t, acc.Usable())
}

func TestProfileRequiresEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"No Email"}`)
	}))
	defer srv.Close()

	a := NewAuthenticator("client-id", "client-secret",
		WithClientOptions(option.WithEndpoint(srv.URL)))

	_, err := a.Profile(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.Error(t, err)
}
