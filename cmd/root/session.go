package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pingoo/pingoo-client/pkg/beacon"
)

func newSessionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the current analytics session id",
		Long: `Print the analytics session id, starting a new session when none is stored
or the last activity is more than 30 minutes old. Like any event, this counts
as activity and extends the session.`,
		GroupID: "analytics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := flags.openStore()
			if err != nil {
				return err
			}
			id, err := beacon.NewSessions(store).Resolve(cmd.Context())
			if err != nil {
				return RuntimeError{Err: fmt.Errorf("failed to resolve session: %w", err)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
