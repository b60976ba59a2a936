package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/image"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [source...]",
		Short: "Check map sources for malformed annotations",
		Long: `Check map source files for missing image references, empty or duplicate
ids and polygons with fewer than three vertices.

Arguments are file paths or configured view names. With no arguments every
configured map is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, args []string, out io.Writer) error {
	sources := args
	if len(sources) == 0 && opts.Config != nil {
		sources = opts.Config.ViewNames()
	}
	if len(sources) == 0 {
		return NewExitError(ExitCommandError, errNoSources.Error())
	}

	var failed []error
	for _, arg := range sources {
		path := resolveSource(opts, arg)
		if err := validateSource(path); err != nil {
			fmt.Fprintf(out, "✗ %s\n", path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "  - %s\n", line)
			}
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", path)
	}

	if len(failed) > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s invalid", pluralize(len(failed), "source")), errors.Join(failed...))
	}
	return nil
}

func validateSource(path string) error {
	src, err := annotation.LoadSource(path)
	if err != nil {
		return err
	}
	errs := []error{src.Validate()}

	ref := src.ToView().Image
	if ref != "" && !image.IsDataRef(ref) {
		if _, err := os.Stat(ref); err != nil {
			errs = append(errs, fmt.Errorf("image %s: %w", ref, err))
		}
	}
	return errors.Join(errs...)
}
