package render_test

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/render"
	"github.com/latent-ml/latent/internal/tensor"
)

func TestWriteGrid(t *testing.T) {
	backend := cpu.New()

	// 5 samples of 4x4 in a single row: 5*4 + 6*2 = 32 wide, 4 + 2*2 = 8 tall.
	samples := tensor.Full[float32](tensor.Shape{5, 4, 4}, 0.5, backend)

	var buf bytes.Buffer
	require.NoError(t, render.WriteGrid(&buf, samples, 5))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestWriteGrid_MultiRow(t *testing.T) {
	backend := cpu.New()

	// 5 samples at 2 columns round up to 3 rows.
	samples := tensor.Zeros[float32](tensor.Shape{5, 3, 3}, backend)

	var buf bytes.Buffer
	require.NoError(t, render.WriteGrid(&buf, samples, 2))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2*3+3*2, img.Bounds().Dx())
	assert.Equal(t, 3*3+4*2, img.Bounds().Dy())
}

func TestWriteGrid_PixelValues(t *testing.T) {
	backend := cpu.New()

	samples := tensor.Zeros[float32](tensor.Shape{1, 2, 2}, backend)
	samples.Set(1.0, 0, 0, 0)
	samples.Set(0.5, 0, 0, 1)
	samples.Set(-3.0, 0, 1, 0) // clamped to 0
	samples.Set(7.0, 0, 1, 1)  // clamped to 1

	var buf bytes.Buffer
	require.NoError(t, render.WriteGrid(&buf, samples, 1))

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	// The image origin sits behind the 2px padding border.
	gray := func(x, y int) uint32 {
		r, _, _, _ := img.At(2+x, 2+y).RGBA()
		return r >> 8
	}
	assert.Equal(t, uint32(255), gray(0, 0))
	assert.Equal(t, uint32(127), gray(1, 0))
	assert.Equal(t, uint32(0), gray(0, 1))
	assert.Equal(t, uint32(255), gray(1, 1))
}

func TestWriteGrid_Errors(t *testing.T) {
	backend := cpu.New()
	var buf bytes.Buffer

	flat := tensor.Zeros[float32](tensor.Shape{4, 16}, backend)
	assert.Error(t, render.WriteGrid(&buf, flat, 2), "non-3D input")

	cube := tensor.Zeros[float32](tensor.Shape{2, 4, 4}, backend)
	assert.Error(t, render.WriteGrid(&buf, cube, 0), "zero columns")
}

func TestSaveGrid(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "digit_3.png")

	samples := tensor.Full[float32](tensor.Shape{3, 28, 28}, 0.25, backend)
	require.NoError(t, render.SaveGrid(path, samples, 3))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3*28+4*2, img.Bounds().Dx())
	assert.Equal(t, 28+2*2, img.Bounds().Dy())
}

func TestSaveGrid_BadPath(t *testing.T) {
	backend := cpu.New()
	samples := tensor.Zeros[float32](tensor.Shape{1, 2, 2}, backend)

	err := render.SaveGrid(filepath.Join(t.TempDir(), "missing", "out.png"), samples, 1)
	require.Error(t, err)
}
