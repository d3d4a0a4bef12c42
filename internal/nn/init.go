package nn

import (
	"math"
	"math/rand"

	"github.com/latent-ml/latent/internal/tensor"
)

// Xavier performs Xavier (Glorot) uniform initialization.
//
// Weights are drawn from U(-bound, bound) with
// bound = sqrt(6 / (fan_in + fan_out)), which keeps activation variance
// roughly constant across layers. The caller supplies the random source so
// initialization is reproducible under a fixed seed.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	data := t.AsFloat32()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}

	return tensor.New[float32, B](t, backend)
}
