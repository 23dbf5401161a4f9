package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"symptom-triage/internal/config"
	"symptom-triage/internal/logging"
)

// Version is set at build time with -ldflags "-X symptom-triage/internal/cli.Version=...".
var Version = "dev"

type rootOptions struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd builds the triage command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Rule-based symptom triage service",
		Long: `triage matches symptoms in free text against a curated knowledge base,
ranks the conditions they point to and answers with an advisory message in
English or Arabic. Every exchange is logged per user.

It is not a diagnostic tool.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), opts.cfgFile)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, opts.verbose)
			if err != nil {
				return err
			}
			opts.cfg, opts.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: $HOME/.triage/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newHistoryCmd(opts),
		newSymptomsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// withApp opens the store and services for the duration of fn.
func (o *rootOptions) withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx, o.cfg, o.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			o.log.Warn("shutdown", zap.Error(cerr))
		}
	}()
	return fn(a)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triage %s\n", Version)
		},
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
