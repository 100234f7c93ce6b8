package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"petai/internal/domain"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available styles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStyles(cmd.OutOrStdout(), domain.Styles())
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List the before/after examples",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGallery(cmd.OutOrStdout(), domain.Gallery())
	},
}

func printStyles(w io.Writer, styles []domain.StyleOption) error {
	if jsonOutput {
		return writeJSON(w, styles)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range styles {
		fmt.Fprintf(tw, "%s\t%s\n", s.Title, s.Prompt)
	}
	return tw.Flush()
}

func printGallery(w io.Writer, examples []domain.GalleryExample) error {
	if jsonOutput {
		return writeJSON(w, examples)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ex := range examples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ex.Style, ex.Original, ex.Transformed, domain.ThumbnailPath(ex.Original))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
