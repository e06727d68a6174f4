package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (a *app) convertCommand() *cobra.Command {
	var (
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert spectrum files to another format",
		Long: "Reads every FILE with the spectrum type registered for its extension " +
			"and writes it into the output directory in the requested format. " +
			"Every file is attempted; failures are reported together.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			return a.convert(cmd, args, format, outDir)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format, e.g. tka, spe, m4b, mat, m")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func (a *app) convert(cmd *cobra.Command, files []string, format, outDir string) error {
	var (
		mu   sync.Mutex
		errs error
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Convert.Parallel)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := a.convertOne(path, format, outDir)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return nil
			}
			a.log.Info("converted", zap.String("file", path), zap.String("format", format))
			return nil
		})
	}
	return multierr.Append(g.Wait(), errs)
}

func (a *app) convertOne(path, format, outDir string) error {
	c, err := a.registry.CreateFromFile(path)
	if err != nil {
		return err
	}
	return c.WriteFile(outDir, format)
}
