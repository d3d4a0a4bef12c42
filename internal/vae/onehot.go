package vae

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// OneHot encodes integer class labels as a [len(labels), numClasses] tensor
// with exactly one 1.0 per row.
//
// A label outside [0, numClasses) is a contract violation and panics; there
// is no meaningful row to build for it.
func OneHot[B tensor.Backend](labels []int, numClasses int, backend B) *tensor.Tensor[float32, B] {
	if numClasses <= 0 {
		panic(fmt.Sprintf("OneHot: numClasses must be positive, got %d", numClasses))
	}

	t := tensor.Zeros[float32](tensor.Shape{len(labels), numClasses}, backend)
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			panic(fmt.Sprintf("OneHot: label %d out of range [0, %d)", label, numClasses))
		}
		t.Set(1, i, label)
	}
	return t
}
