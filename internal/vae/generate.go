package vae

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/latent-ml/latent/internal/tensor"
)

// Generate samples n images of the given class from a trained CVAE.
//
// The encoder is bypassed entirely: latent codes are drawn directly from
// the standard normal prior, z ~ N(0, I) with shape [n, LatentDim], paired
// with n identical one-hot rows, and pushed through the decoder only.
//
// Callers should stop tape recording before generating; sampling is pure
// inference and recording it would only grow the tape.
//
// Returns a [n, side, side] tensor with values in [0, 1], where
// side = sqrt(InputDim) (28 for MNIST).
func Generate[B tensor.Backend](model *CVAE[B], class, n int, rng *rand.Rand) *tensor.Tensor[float32, B] {
	cfg := model.Config()
	if n <= 0 {
		panic(fmt.Sprintf("Generate: sample count must be positive, got %d", n))
	}

	side := int(math.Sqrt(float64(cfg.InputDim)))
	if side*side != cfg.InputDim {
		panic(fmt.Sprintf("Generate: input dim %d is not a square image", cfg.InputDim))
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = class // OneHot validates the range
	}
	y := OneHot(labels, cfg.NumClasses, model.backend)

	z := tensor.Randn[float32](tensor.Shape{n, cfg.LatentDim}, rng, model.backend)
	zy := tensor.Cat([]*tensor.Tensor[float32, B]{z, y}, 1)

	return model.decoder.Forward(zy).Reshape(n, side, side)
}
