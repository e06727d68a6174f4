package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/hdf5"
	"github.com/robert-malhotra/go-spectra/spectrum"
)

// spectraGroup is where export writes one subgroup per spectrum.
const spectraGroup = "spectra"

func (a *app) h5Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "h5",
		Short: "Work with HDF5 spectrum archives",
	}
	cmd.AddCommand(a.h5TreeCommand(), a.h5ExportCommand(), a.h5ListCommand())
	return cmd
}

func (a *app) h5TreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print every group, dataset and attribute of an HDF5 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := hdf5.Open(args[0], hdf5.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer f.Close()
			return printTree(cmd.OutOrStdout(), f)
		},
	}
}

func printTree(w io.Writer, f *hdf5.File) error {
	fmt.Fprintf(w, "%s (superblock v%d)\n", f.Path(), f.Version())
	return hdf5.Walk(f.Root(), func(path string, obj hdf5.Attributed) error {
		indent := strings.Repeat("  ", depth(path))
		var infos []hdf5.AttrInfo
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Fprintf(w, "%sgroup %s\n", indent, path)
			infos = o.AttrInfos()
		case *hdf5.Dataset:
			fmt.Fprintf(w, "%sdataset %s %s %v\n", indent, path, o.Class(), o.Shape())
			infos = o.AttrInfos()
		}
		for _, ai := range infos {
			fmt.Fprintf(w, "%s  @%s %s %v\n", indent, ai.Name, ai.Class, ai.Dims)
		}
		return nil
	})
}

func depth(path string) int {
	if path == "/" {
		return 0
	}
	return strings.Count(path, "/")
}

func (a *app) h5ExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export OUT.h5 FILE...",
		Short: "Store spectrum files in one HDF5 archive",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(args[0], args[1:])
		},
	}
}

func (a *app) export(out string, files []string) (err error) {
	f, err := hdf5.Create(out, hdf5.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	root, err := f.Root().RequireGroup(spectraGroup)
	if err != nil {
		return err
	}
	for _, path := range files {
		c, err := a.registry.CreateFromFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		name := groupName(c, path)
		if root.HasMember(name) {
			return fmt.Errorf("%s: %q already exported", path, name)
		}
		g, err := root.CreateGroup(name)
		if err != nil {
			return err
		}
		if err := c.SaveH5(g); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		a.log.Info("exported", zap.String("file", path), zap.String("group", g.Path()))
	}
	return nil
}

// groupName prefers the spectrum's name attribute over the file name.
func groupName(c *spectrum.Consumer, path string) string {
	md := c.Metadata()
	if name := md.Name(); name != "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (a *app) h5ListCommand() *cobra.Command {
	var showData bool
	cmd := &cobra.Command{
		Use:   "list FILE",
		Short: "Print the spectra stored in an HDF5 archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			consumers, err := a.loadH5(args[0])
			if err != nil {
				return err
			}
			for _, c := range consumers {
				printInfo(cmd.OutOrStdout(), args[0], c, showData)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showData, "data", false, "also print every nonzero bin")
	return cmd
}

// loadH5 restores every spectrum under the archive's spectra group.
func (a *app) loadH5(path string) ([]*spectrum.Consumer, error) {
	f, err := hdf5.Open(path, hdf5.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := f.OpenGroup(spectraGroup)
	if err != nil {
		return nil, err
	}
	var out []*spectrum.Consumer
	for _, name := range root.Members() {
		if !root.IsGroup(name) {
			continue
		}
		g, err := root.OpenGroup(name)
		if err != nil {
			return nil, err
		}
		c, err := a.registry.CreateFromH5(g)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Path(), err)
		}
		out = append(out, c)
	}
	return out, nil
}
