package cli

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pcb-annotator/internal/annotation"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_All(t *testing.T) {
	out, _, err := execute(t, nil, "export", "board")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "export_all", []byte(out))
}

func TestExport_SingleID(t *testing.T) {
	out, _, err := execute(t, nil, "export", filepath.Join("testdata", "board.yaml"), "--id", "2001")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "export_single", []byte(out))
}

func TestExport_UnknownID(t *testing.T) {
	_, _, err := execute(t, nil, "export", "board", "--id", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, annotation.ErrNotFound)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_Configured(t *testing.T) {
	out, _, err := execute(t, nil, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ")
	assert.Contains(t, out, "board.yaml")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	out, _, err := execute(t, nil, "validate", filepath.Join("testdata", "broken.json"), "board")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, annotation.ErrTooFewVertices)

	assert.Contains(t, out, "✗ testdata/broken.json")
	assert.Contains(t, out, "no image reference")
	assert.Contains(t, out, `duplicate id "a"`)
	assert.Contains(t, out, "empty id")
	assert.Contains(t, out, "✓ ", "the good source is still reported")
}

func TestValidate_MissingImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lonely.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: nowhere.png\nannotations: []\n"), 0o644))

	out, _, err := execute(t, nil, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "nowhere.png")
}

func TestHit(t *testing.T) {
	out, _, err := execute(t, nil, "hit", "board", "20,20", "45,8", "55,30", "100,100")
	require.NoError(t, err)
	assert.Equal(t, "20,20\t2001\n45,8\t4001\n55,30\t3001\n100,100\t-\n", out)
}

func TestHit_BadPoint(t *testing.T) {
	_, _, err := execute(t, nil, "hit", "board", "20;20")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRender(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.png")
	_, _, err := execute(t, nil, "render", "board", "-o", outPath, "--width", "128", "--height", "96", "--labels")
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 96, img.Bounds().Dy())

	// Scale 1.8 with a 6.4 pixel margin: the corner is background and
	// image pixel (62,45) lies outside every annotation.
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{40, 40, 40}, [3]uint32{r >> 8, g >> 8, b >> 8})
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0x20, 0x60, 0x20, 0xff}), color.RGBAModel.Convert(img.At(118, 87)))
}

func TestRender_Stdout(t *testing.T) {
	out, _, err := execute(t, nil, "render", "board", "--rotate", "-2", "--select", "2001")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx(), "frame defaults to the image size")
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestRender_NoImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "blank", "annotations": []}`), 0o644))

	_, _, err := execute(t, nil, "render", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
