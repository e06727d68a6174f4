package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

func (a *app) infoCommand() *cobra.Command {
	var showData bool
	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "Print the metadata of spectrum files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				c, err := a.registry.CreateFromFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printInfo(cmd.OutOrStdout(), path, c, showData)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showData, "data", false, "also print every nonzero bin")
	return cmd
}

func printInfo(w io.Writer, path string, c *spectrum.Consumer, showData bool) {
	md := c.Metadata()
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  type:        %s (%s)\n", md.Type, c.Kind())
	fmt.Fprintf(w, "  name:        %s\n", md.Name())
	fmt.Fprintf(w, "  resolution:  %d bits x %d\n", md.Resolution(), md.Dimensions)
	fmt.Fprintf(w, "  total hits:  %s\n", md.Precise(spectrum.AttrTotalHits))
	fmt.Fprintf(w, "  real time:   %gs\n", md.Float(spectrum.AttrRealTime))
	fmt.Fprintf(w, "  live time:   %gs\n", md.Float(spectrum.AttrLiveTime))
	names := make([]string, len(md.Detectors))
	for i, d := range md.Detectors {
		names[i] = d.Name
	}
	if len(names) > 0 {
		fmt.Fprintf(w, "  detectors:   %s\n", strings.Join(names, ", "))
	}
	if !showData {
		return
	}
	ranges := make([]spectrum.Range, md.Dimensions)
	for i := range ranges {
		ranges[i] = spectrum.FullRange
	}
	for _, e := range c.Peek(ranges...) {
		fmt.Fprintf(w, "  %v\t%s\n", e.Coords, e.Count)
	}
}
