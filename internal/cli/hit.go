package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/pkg/geometry"

	"github.com/spf13/cobra"
)

// NewHitCommand creates the hit command.
func NewHitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hit <source> <x,y>...",
		Short: "Print the topmost annotation at image points",
		Long: `Hit-test image coordinates against a map source and print, for each
point, the id of the topmost annotation or "-" when nothing is hit.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHit(rootOpts, args[0], args[1:], cmd.OutOrStdout())
		},
	}
}

func runHit(rootOpts *RootOptions, arg string, points []string, out io.Writer) error {
	pts := make([]geometry.Point2D, len(points))
	for i, s := range points {
		p, err := parsePoint(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad point", err)
		}
		pts[i] = p
	}

	src, err := annotation.LoadSource(resolveSource(rootOpts, arg))
	if err != nil {
		return WrapExitError(ExitCommandError, "load source", err)
	}
	view := src.ToView()

	for i, p := range pts {
		id := "-"
		if a := view.Topmost(p.X, p.Y); a != nil {
			id = a.ID
		}
		fmt.Fprintf(out, "%s\t%s\n", points[i], id)
	}
	return nil
}

// parsePoint reads "x,y".
func parsePoint(s string) (geometry.Point2D, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point2D{}, fmt.Errorf("%q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("%q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("%q: %w", s, err)
	}
	return geometry.NewPoint2D(x, y), nil
}
