package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pingoo/pingoo-client/pkg/cli"
	"github.com/pingoo/pingoo-client/pkg/userconfig"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the pingoo configuration",
		Example: `  pingoo config show
  pingoo config set base_url https://pingoo.example.com
  pingoo config set store.backend keyring`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, including environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			out := cli.NewPrinter(cmd.OutOrStdout())
			out.Printf("%s\n", userconfig.Path())
			for _, key := range userconfig.Keys {
				value, _ := cfg.Get(key)
				out.PrintField(key, value)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key, an empty value restores the default",
		Long:  "Set a configuration key in the config file. Keys: base_url, refresh_path, login_path, store.backend, store.path, beacon.screen, beacon.referrer.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSetCommand(cmd, args[0], args[1])
		},
	})

	return cmd
}

func runConfigSetCommand(cmd *cobra.Command, key, value string) error {
	// Edit the file itself so environment overrides are not persisted.
	cfg, err := userconfig.LoadFile()
	if err != nil {
		return RuntimeError{Err: fmt.Errorf("failed to load config: %w", err)}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return RuntimeError{Err: fmt.Errorf("failed to save config: %w", err)}
	}

	saved, _ := cfg.Get(key)
	cli.NewPrinter(cmd.OutOrStdout()).PrintSuccess("%s = %s", key, saved)
	return nil
}
