package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pingoo/pingoo-client/pkg/cli"
	"github.com/pingoo/pingoo-client/pkg/kvstore"
	"github.com/pingoo/pingoo-client/pkg/logging"
	"github.com/pingoo/pingoo-client/pkg/userconfig"
)

type rootFlags struct {
	enableOtel   bool
	debugMode    bool
	logFilePath  string
	storeBackend string
	storePath    string

	logFile      io.Closer
	otelShutdown func(context.Context) error
	config       *userconfig.Config
	store        kvstore.Store
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pingoo",
		Short: "pingoo - pingoo API and analytics client",
		Long:  "pingoo calls the pingoo API on behalf of a logged-in user and reports analytics events for a page",
		Example: `  pingoo login --token <access> --refresh-token <refresh>
  pingoo request GET /api/me
  pingoo beacon ./index.html --click signup`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.setupLogging(); err != nil {
				// If logging setup fails, fall back to stderr so we still get logs
				slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
				slog.Warn("Failed to open log file", "error", err)
			}

			if flags.enableOtel {
				shutdown, err := initOTelSDK(cmd.Context())
				if err != nil {
					slog.Warn("Failed to initialize OpenTelemetry SDK", "error", err)
				} else {
					flags.otelShutdown = shutdown
					slog.Debug("OpenTelemetry SDK initialized successfully")
				}
			}

			return nil
		},
		// If no subcommand is specified, show help
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.enableOtel, "otel", "o", false, "Enable OpenTelemetry tracing")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Path to debug log file (default: ~/.pingoo/pingoo.debug.log; only used with --debug)")
	cmd.PersistentFlags().StringVar(&flags.storeBackend, "store", "", "Local store backend: memory, file, sqlite or keyring (default from config)")
	cmd.PersistentFlags().StringVar(&flags.storePath, "store-path", "", "Location of the local store (default depends on the backend)")

	cmd.AddGroup(&cobra.Group{ID: "auth", Title: "Authentication Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "analytics", Title: "Analytics Commands:"})

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd(flags))
	cmd.AddCommand(newLogoutCmd(flags))
	cmd.AddCommand(newAuthCmd(flags))
	cmd.AddCommand(newRequestCmd(flags))
	cmd.AddCommand(newBeaconCmd(flags))
	cmd.AddCommand(newSessionCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))

	return cmd
}

func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	var flags rootFlags
	rootCmd := newRootCmd(&flags)
	defer flags.close()

	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return nil
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) error {
	if ctx.Err() != nil {
		return ctx.Err()
	} else if _, ok := errors.AsType[RuntimeError](err); ok {
		cli.NewPrinter(stderr).PrintError(err)
	} else {
		// Command line usage errors - show the error and usage
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr)
		if strings.HasPrefix(err.Error(), "unknown command ") || strings.HasPrefix(err.Error(), "accepts ") {
			_ = rootCmd.Usage()
		}
	}

	return err
}

// setupLogging configures slog logging behavior.
// When --debug is enabled, logs are written to a rotating file <dataDir>/pingoo.debug.log,
// or to the file specified by --log-file.
func (f *rootFlags) setupLogging() error {
	logFile, err := logging.Setup(f.debugMode, f.logFilePath)
	if err != nil {
		return err
	}
	f.logFile = logFile
	return nil
}

// loadConfig reads the user config once, with the --store and --store-path
// flags taking precedence over the file and the environment.
func (f *rootFlags) loadConfig() (*userconfig.Config, error) {
	if f.config != nil {
		return f.config, nil
	}

	cfg, err := userconfig.Load()
	if err != nil {
		return nil, RuntimeError{Err: fmt.Errorf("failed to load config: %w", err)}
	}
	if f.storeBackend != "" {
		cfg.Store.Backend = f.storeBackend
	}
	if f.storePath != "" {
		cfg.Store.Path = f.storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, RuntimeError{Err: fmt.Errorf("invalid config %s: %w", userconfig.Path(), err)}
	}

	f.config = cfg
	return cfg, nil
}

func (f *rootFlags) openStore() (kvstore.Store, error) {
	if f.store != nil {
		return f.store, nil
	}

	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := kvstore.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, RuntimeError{Err: fmt.Errorf("failed to open local store: %w", err)}
	}
	slog.Debug("Local store opened", "backend", cfg.Store.Backend, "path", cfg.StorePath())

	f.store = store
	return store, nil
}

func (f *rootFlags) close() {
	if closer, ok := f.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close local store", "error", err)
		}
	}
	if f.otelShutdown != nil {
		if err := f.otelShutdown(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}
	if f.logFile != nil {
		if err := f.logFile.Close(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
	}
}

// RuntimeError wraps runtime errors to distinguish them from usage errors
type RuntimeError struct {
	Err error
}

func (e RuntimeError) Error() string {
	return e.Err.Error()
}

func (e RuntimeError) Unwrap() error {
	return e.Err
}
