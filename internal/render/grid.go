// Package render writes batches of generated grayscale samples as PNG grids.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/latent-ml/latent/internal/tensor"
)

// gridPadding is the pixel gap between neighboring cells.
const gridPadding = 2

// WriteGrid encodes a [n, h, w] batch of grayscale images as a single PNG
// grid with cols images per row. Values are clamped to [0, 1] and mapped to
// 8-bit gray.
func WriteGrid[B tensor.Backend](w io.Writer, samples *tensor.Tensor[float32, B], cols int) error {
	shape := samples.Shape()
	if len(shape) != 3 {
		return fmt.Errorf("expected [n, h, w] samples, got shape %v", shape)
	}
	if cols <= 0 {
		return fmt.Errorf("cols must be positive, got %d", cols)
	}

	n, imgH, imgW := shape[0], shape[1], shape[2]
	rows := (n + cols - 1) / cols

	canvasW := cols*imgW + (cols+1)*gridPadding
	canvasH := rows*imgH + (rows+1)*gridPadding
	canvas := image.NewGray(image.Rect(0, 0, canvasW, canvasH))

	data := samples.Data()
	for i := 0; i < n; i++ {
		originX := (i%cols)*imgW + (i%cols+1)*gridPadding
		originY := (i/cols)*imgH + (i/cols+1)*gridPadding

		for y := 0; y < imgH; y++ {
			for x := 0; x < imgW; x++ {
				v := data[i*imgH*imgW+y*imgW+x]
				if v < 0 {
					v = 0
				} else if v > 1 {
					v = 1
				}
				canvas.SetGray(originX+x, originY+y, color.Gray{Y: uint8(v * 255)})
			}
		}
	}

	return png.Encode(w, canvas)
}

// SaveGrid writes the PNG grid to a file.
func SaveGrid[B tensor.Backend](path string, samples *tensor.Tensor[float32, B], cols int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteGrid(f, samples, cols); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
