package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/maloquacious/skelly/internal/app"
	"github.com/maloquacious/skelly/internal/config"
	"github.com/maloquacious/skelly/internal/logger"
)

var (
	version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd, cleanup := newRootCmd(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned cleanup flushes the logger.
func newRootCmd(out io.Writer) (*cobra.Command, func()) {
	v := viper.New()
	var (
		configFile string
		a          *app.App
		zl         *logger.ZapLogger
	)

	rootCmd := &cobra.Command{
		Use:          app.Name,
		Short:        "Application skeleton with an optional embedded SQLite store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			zl, err = logger.New(cfg.Log.Debug)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			zap.ReplaceGlobals(zl.Zap())
			a = app.New(cfg, cmd.OutOrStdout(), zl, version.String())
			return nil
		},
	}
	rootCmd.SetOut(out)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("db", "", "store location: a file path or :memory: (default \"skelly.db\")")
	rootCmd.PersistentFlags().Bool("store", true, "enable the embedded store")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")
	_ = v.BindPFlag(config.KeyStorePath, rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag(config.KeyStoreEnabled, rootCmd.PersistentFlags().Lookup("store"))
	_ = v.BindPFlag(config.KeyLogDebug, rootCmd.PersistentFlags().Lookup("debug"))

	runApp := func(cmd *cobra.Command, args []string) error {
		return a.Run(cmd.Context())
	}
	rootCmd.RunE = runApp

	// run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the application (open and initialize the store, if enabled)",
		Args:  cobra.NoArgs,
		RunE:  runApp,
	}

	// selftest command
	selftestCmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in self tests against a volatile store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := a.SelfTest(cmd.Context())
			if !summary.OK() {
				return fmt.Errorf("selftest: %d of %d failed", summary.Failed, summary.Run)
			}
			return nil
		},
	}

	// db command group
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	dbCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create and initialize the datastore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Create(cmd.Context())
		},
	}

	var outputFormat string
	dbVerifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify schema integrity and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if err := report.Encode(cmd.OutOrStdout(), outputFormat); err != nil {
				return err
			}
			if !report.Ready() {
				return fmt.Errorf("%s: store is %s", report.Location, report.State)
			}
			return nil
		},
	}
	dbVerifyCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")

	// version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app.Name, version.String())
		},
	}

	dbCmd.AddCommand(dbCreateCmd, dbVerifyCmd)
	rootCmd.AddCommand(runCmd, selftestCmd, dbCmd, versionCmd)

	cleanup := func() {
		if zl != nil {
			_ = zl.Sync()
		}
	}
	return rootCmd, cleanup
}
