// Command hittest lists every annotation under an image point with its
// stacking order and marks the one a click would select.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/pkg/geometry"
)

func main() {
	sourcePath := flag.String("source", "", "Path to map source (JSON or YAML)")
	x := flag.Float64("x", 0, "Image X coordinate")
	y := flag.Float64("y", 0, "Image Y coordinate")
	flag.Parse()

	if *sourcePath == "" {
		fmt.Println("Usage: hittest -source <map.yaml> -x <px> -y <px>")
		os.Exit(1)
	}

	src, err := annotation.LoadSource(*sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load source: %v\n", err)
		os.Exit(1)
	}
	if err := src.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: source has problems:\n%v\n\n", err)
	}

	report(os.Stdout, src.ToView(), geometry.NewPoint2D(*x, *y))
}

// report prints the candidates under p, marking the topmost one.
func report(w io.Writer, view *annotation.MapView, p geometry.Point2D) {
	fmt.Fprintf(w, "Map %q: %d annotations\n", view.Name, len(view.Baseline()))
	fmt.Fprintf(w, "Point: (%.1f, %.1f)\n\n", p.X, p.Y)

	winner := view.Topmost(p.X, p.Y)
	fmt.Fprintf(w, "%-3s %-5s %-16s %s\n", "", "Z", "ID", "Name")
	hits := 0
	for _, a := range view.All() {
		if !a.Contains(p) {
			continue
		}
		hits++
		mark := ""
		if a == winner {
			mark = "*"
		}
		fmt.Fprintf(w, "%-3s %-5d %-16s %s\n", mark, a.ZOrder, a.ID, a.Name)
		fmt.Fprintf(w, "%-9s path %s\n", "", geometry.PathString(a.Coordinates))
	}

	if hits == 0 {
		fmt.Fprintln(w, "(no annotation at this point)")
		return
	}
	fmt.Fprintf(w, "\n%d candidates, selected %s\n", hits, winner.ID)
}
