package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kdsmith18542/gallerykit/block"
	"github.com/kdsmith18542/gallerykit/gallery"
)

func NormalizeCmd(a *app) *cobra.Command {
	var (
		outFile      string
		requireFiles bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Load saved gallery data and write it back normalized",
		Long: `Replay saved gallery data through the gallery state: items with an empty URL
are dropped, items beyond the capacity limit are dropped and the style becomes
"slider" or "fit". Reads stdin when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bindFlags(cmd.Flags(), map[string]string{
				"gallery.max_element_count": "max",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readData(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			g := gallery.New(nil, gallery.Options{MaxElementCount: s.Gallery.MaxElementCount})
			g.ReplaceAll(data)
			out := g.Serialize()

			if requireFiles && !block.Validate(out) {
				return errors.New("gallery has no files")
			}
			return writeData(out, outFile, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int("max", 0, "Maximum gallery items (0 = unlimited)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the result here instead of stdout")
	cmd.Flags().BoolVar(&requireFiles, "require-files", false, "Fail when the result holds no files")
	return cmd
}
