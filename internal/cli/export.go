package cli

import (
	"fmt"
	"io"
	"slices"

	"pcb-annotator/internal/annotation"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	IDs []string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <source>",
		Short: "Print annotations in the metadata panel's JSON format",
		Long: `Print the baseline annotations of a map source as JSON, exactly as the
metadata panel shows them. A single --id prints one object; otherwise an
array is printed in source order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.IDs, "id", nil, "annotation id to export (repeatable)")
	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, arg string, out io.Writer) error {
	src, err := annotation.LoadSource(resolveSource(rootOpts, arg))
	if err != nil {
		return WrapExitError(ExitCommandError, "load source", err)
	}
	anns := src.ToView().Baseline()

	if len(opts.IDs) > 0 {
		selected := make([]*annotation.Annotation, 0, len(opts.IDs))
		for _, id := range opts.IDs {
			idx := slices.IndexFunc(anns, func(a *annotation.Annotation) bool { return a.ID == id })
			if idx < 0 {
				return WrapExitError(ExitFailure, fmt.Sprintf("id %q", id), annotation.ErrNotFound)
			}
			selected = append(selected, anns[idx])
		}
		anns = selected
	}

	if len(opts.IDs) == 1 {
		_, err = fmt.Fprintln(out, annotation.ExportJSON(anns[0]))
	} else {
		_, err = fmt.Fprintln(out, annotation.ExportAll(anns))
	}
	return err
}
