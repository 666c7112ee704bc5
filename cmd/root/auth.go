package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pingoo/pingoo-client/pkg/authclient"
	"github.com/pingoo/pingoo-client/pkg/cli"
)

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var creds authclient.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the tokens issued by the pingoo login flow",
		Long:  "Store an access token and a refresh token in the local store. The access token is read from stdin when --token is omitted.",
		Example: `  pingoo login --token "$ACCESS" --refresh-token "$REFRESH"
  echo "$ACCESS" | pingoo login --refresh-token "$REFRESH"`,
		GroupID: "auth",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoginCommand(cmd, flags, creds)
		},
	}

	cmd.Flags().StringVar(&creds.AccessToken, "token", "", "Access token")
	cmd.Flags().StringVar(&creds.RefreshToken, "refresh-token", "", "Refresh token")

	return cmd
}

func runLoginCommand(cmd *cobra.Command, flags *rootFlags, creds authclient.Credentials) error {
	if creds.AccessToken == "" {
		token, err := cli.ReadSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Access token: ")
		if err != nil {
			return fmt.Errorf("an access token is required: %w", err)
		}
		creds.AccessToken = token
	}
	if creds.AccessToken == "" {
		return errors.New("an access token is required")
	}

	store, err := flags.openStore()
	if err != nil {
		return err
	}
	if err := authclient.Login(cmd.Context(), store, creds); err != nil {
		return RuntimeError{Err: err}
	}

	out := cli.NewPrinter(cmd.OutOrStdout())
	out.PrintSuccess("Logged in")
	printExpiry(out, creds.AccessToken, time.Now())
	return nil
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Delete the stored tokens",
		GroupID: "auth",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.openStore()
			if err != nil {
				return err
			}
			if err := authclient.Logout(cmd.Context(), store); err != nil {
				return RuntimeError{Err: fmt.Errorf("failed to delete credentials: %w", err)}
			}
			cli.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Logged out")
			return nil
		},
	}
}

func newAuthCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Short:   "Inspect the stored credentials",
		GroupID: "auth",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether credentials are stored and when the access token expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthStatusCommand(cmd, flags)
		},
	})

	return cmd
}

func runAuthStatusCommand(cmd *cobra.Command, flags *rootFlags) error {
	store, err := flags.openStore()
	if err != nil {
		return err
	}
	creds, err := authclient.LoadCredentials(cmd.Context(), store)
	if err != nil {
		return RuntimeError{Err: fmt.Errorf("failed to read credentials: %w", err)}
	}

	out := cli.NewPrinter(cmd.OutOrStdout())
	if creds.AccessToken == "" {
		out.PrintWarning("Not logged in")
		return nil
	}

	out.PrintSuccess("Logged in")
	out.PrintField("Store", flags.config.Store.Backend)
	printExpiry(out, creds.AccessToken, time.Now())
	if creds.RefreshToken == "" {
		out.PrintField("Refresh token", "missing")
	} else {
		out.PrintField("Refresh token", "present")
	}
	return nil
}

func printExpiry(out *cli.Printer, token string, now time.Time) {
	exp, err := authclient.TokenExpiry(token)
	switch {
	case errors.Is(err, authclient.ErrNoExpiry):
		out.PrintField("Expires", "never")
	case err != nil:
		out.PrintField("Expires", "unknown (not a JWT)")
	case exp.Before(now):
		out.PrintField("Expires", exp.Local().Format(time.RFC1123)+" (expired, will refresh on next request)")
	default:
		out.PrintField("Expires", exp.Local().Format(time.RFC1123))
	}
}
