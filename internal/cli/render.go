package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/app"
	"pcb-annotator/internal/image"
	"pcb-annotator/internal/logging"
	"pcb-annotator/internal/render"
	"pcb-annotator/internal/viewport"

	"github.com/spf13/cobra"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Output string
	Width  int
	Height int
	Labels bool
	Rotate int // 45° steps, negative turns left
	Select string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <source>",
		Short: "Render a map with its annotations to PNG",
		Long: `Render a map image with its baseline annotations fitted into a frame,
the same way the viewer draws it after a reset. Width and height default to
the image size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.Output != "-" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return WrapExitError(ExitCommandError, "create output", err)
				}
				defer f.Close()
				out = f
			}
			return runRender(rootOpts, opts, args[0], out)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output PNG file, - for stdout")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "frame width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "frame height in pixels")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw annotation names")
	cmd.Flags().IntVar(&opts.Rotate, "rotate", 0, "rotate by this many 45° steps")
	cmd.Flags().StringVar(&opts.Select, "select", "", "highlight the annotation with this id")
	return cmd
}

func runRender(rootOpts *RootOptions, opts *RenderOptions, arg string, out io.Writer) error {
	log := logging.For("render")

	src, err := annotation.LoadSource(resolveSource(rootOpts, arg))
	if err != nil {
		return WrapExitError(ExitCommandError, "load source", err)
	}
	view := src.ToView()
	if view.Image == "" {
		return WrapExitError(ExitCommandError, view.Name, app.ErrNoImage)
	}
	layer, err := image.Load(view.Image)
	if err != nil {
		return WrapExitError(ExitCommandError, "load image", err)
	}

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = layer.Width()
	}
	if h <= 0 {
		h = layer.Height()
	}

	limits := viewport.DefaultLimits()
	if rootOpts.Config != nil {
		limits = rootOpts.Config.Limits()
	}
	vp := viewport.New(limits)
	vp.SetImageSize(layer.Width(), layer.Height())
	vp.SetWindowSize(float64(w), float64(h))
	if err := vp.Reset(); err != nil {
		return WrapExitError(ExitCommandError, "fit image", err)
	}
	for i := 0; i < opts.Rotate; i++ {
		vp.RotateRight()
	}
	for i := 0; i > opts.Rotate; i-- {
		vp.RotateLeft()
	}

	sceneOpts := render.Options{Labels: opts.Labels}
	if opts.Select != "" {
		anns := view.Baseline()
		idx := slices.IndexFunc(anns, func(a *annotation.Annotation) bool { return a.ID == opts.Select })
		if idx < 0 {
			return WrapExitError(ExitFailure, fmt.Sprintf("id %q", opts.Select), annotation.ErrNotFound)
		}
		sceneOpts.Selected = anns[idx].UUID
	}

	scene := render.BuildScene(view, nil, sceneOpts)
	scene.Background = layer.Image
	frame := render.Draw(scene, render.NewRaster(), vp.Affine(), w, h)

	log.Debug().
		Str("view", view.Name).
		Int("width", w).
		Int("height", h).
		Float64("scale", vp.Transform().Scale).
		Msg("rendered")
	return render.EncodePNG(out, frame)
}
