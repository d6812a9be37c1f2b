package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/config"
	"github.com/gtaskall/gtaskall/internal/google"
	"github.com/gtaskall/gtaskall/internal/model"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage connected Google accounts",
		Long: `Connect, list, reconnect, and remove the Google accounts whose tasks are
aggregated. Each account goes through the OAuth flow once; when its token
expires it is marked expired and can be reconnected without losing its
cached tasks until the next sync.`,
	}

	cmd.AddCommand(newAccountsAddCmd())
	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsRemoveCmd())
	cmd.AddCommand(newAccountsReconnectCmd())

	return cmd
}

func authenticatorFromConfig(cfg *config.AppConfig) (*google.Authenticator, error) {
	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return nil, fmt.Errorf("google.client_id and google.client_secret must be set in %s "+
			"(or via GTASKALL_GOOGLE_CLIENT_ID / GTASKALL_GOOGLE_CLIENT_SECRET)", config.DefaultConfigPath())
	}
	return google.NewAuthenticator(cfg.Google.ClientID, cfg.Google.ClientSecret), nil
}

// runAuthFlow walks the user through the console OAuth flow and
// returns the connected account with its token.
func runAuthFlow(ctx context.Context, cmd *cobra.Command, auth *google.Authenticator) (model.Account, error) {
	state := uuid.NewString()
	fmt.Fprintf(cmd.OutOrStdout(), "Open the following URL in your browser and authorize access:\n\n%s\n\n", auth.AuthURL(state))
	fmt.Fprint(cmd.OutOrStdout(), "Enter the authorization code: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return model.Account{}, fmt.Errorf("reading authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return model.Account{}, fmt.Errorf("no authorization code provided")
	}

	token, err := auth.Exchange(ctx, code)
	if err != nil {
		return model.Account{}, err
	}
	return auth.Profile(ctx, token)
}

func newAccountsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Connect a Google account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			auth, err := authenticatorFromConfig(app.cfg)
			if err != nil {
				return err
			}

			account, err := runAuthFlow(ctx, cmd, auth)
			if err != nil {
				return err
			}

			saved, err := app.registry.Add(ctx, account)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connected %s (%s)\n", saved.Email, saved.Name)
			return nil
		},
	}
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connected accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			accounts := app.registry.All()
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts connected. Run 'gtaskall accounts add' to connect one.")
				return nil
			}

			for _, acc := range accounts {
				status := "active"
				if acc.Status == model.AccountExpired {
					status = "expired (run 'gtaskall accounts reconnect " + acc.Email + "')"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-24s %s\n", acc.Email, acc.Name, status)
			}
			return nil
		},
	}
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove EMAIL",
		Short: "Disconnect an account and drop its cached tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			account, ok := app.registry.ByEmail(args[0])
			if !ok {
				return fmt.Errorf("no account connected for %s", args[0])
			}

			removed, err := app.registry.Remove(ctx, account.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed.Email)
			return nil
		},
	}
}

func newAccountsReconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconnect EMAIL",
		Short: "Re-authorize an expired account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			existing, ok := app.registry.ByEmail(args[0])
			if !ok {
				return fmt.Errorf("no account connected for %s", args[0])
			}

			auth, err := authenticatorFromConfig(app.cfg)
			if err != nil {
				return err
			}

			account, err := runAuthFlow(ctx, cmd, auth)
			if err != nil {
				return err
			}
			if account.Email != existing.Email {
				return fmt.Errorf("authorized %s but expected %s; run 'gtaskall accounts add' to connect a new account",
					account.Email, existing.Email)
			}

			if err := app.registry.MarkActive(ctx, existing.ID, account.Token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reconnected %s\n", existing.Email)
			return nil
		},
	}
}
