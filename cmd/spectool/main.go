// Command spectool inspects, converts and serves spectrum files.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/internal/config"
	"github.com/robert-malhotra/go-spectra/spectrum"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath string
	envFile    string

	cfg      config.Config
	log      *zap.Logger
	registry *spectrum.Registry
}

func main() {
	a := &app{}
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "spectool",
		Short:         "Inspect, convert and serve spectrum files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("SPECTRA_CONFIG"), "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "environment file loaded before the configuration")

	root.AddCommand(
		a.infoCommand(),
		a.convertCommand(),
		a.h5Command(),
		a.serveCommand(),
	)
	return root
}

func (a *app) setup() error {
	// a missing env file is not an error
	if err := godotenv.Load(a.envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading %s: %w", a.envFile, err)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	registry, err := spectrum.NewRegistry(spectrum.WithLogger(log))
	if err != nil {
		return err
	}
	registry.RegisterDefaults()
	if err := cfg.ApplyPrototypes(registry); err != nil {
		return err
	}
	a.cfg, a.log, a.registry = cfg, log, registry
	return nil
}
