package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"clipwatch/internal/vision"
)

func newMarkersCommand(ctx *commandContext) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List the marker images used for detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.MarkersDir
			files, err := vision.ListMarkerFiles(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No marker images in %s\n", dir)
				fmt.Fprintln(out, "Add PNG or JPEG screenshots of the on-screen markers to enable highlights.")
				return nil
			}

			if check {
				lib, err := vision.LoadLibrary(dir, vision.FilterFromConfig(cfg), nil)
				if err != nil {
					return err
				}
				defer lib.Close()
				fmt.Fprintf(out, "Loaded %d of %d marker images\n", lib.Len(), len(files))
			}

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{vision.DisplayName(file), filepath.Base(file)})
			}
			fmt.Fprint(out, renderTable([]string{"Marker", "File"}, rows, []columnAlignment{alignLeft, alignLeft}))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Decode each image and report how many load")
	return cmd
}
