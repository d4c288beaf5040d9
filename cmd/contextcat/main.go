package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/source"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	vaultDir string
	verbose  bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "contextcat",
		Short:         "Collect matching sections from a Markdown vault into one document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.vaultDir, "vault", "", "vault directory (overrides VAULT_DIR)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(runCmd(a), watchCmd(a), foldersCmd(a), settingsCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.vaultDir != "" {
		cfg.VaultDir = a.vaultDir
		cfg.HostAPIURL = ""
		if os.Getenv("SETTINGS_FILE") == "" {
			cfg.SettingsFile = config.DefaultSettingsFile(a.vaultDir)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) open() (*source.Source, *settings.Store, error) {
	src, err := source.Open(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	return src, settings.NewStore(a.cfg.SettingsFile), nil
}
