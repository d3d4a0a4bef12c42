package vae

import (
	"fmt"
	"math/rand"

	"github.com/latent-ml/latent/internal/nn"
	"github.com/latent-ml/latent/internal/tensor"
)

// Decoder maps latent codes back to flattened images.
//
// Architecture:
//
//	z [N, in] -> Linear(in, hidden) -> ReLU -> Linear(hidden, out) -> Sigmoid
//
// The terminal sigmoid bounds every output element to [0, 1], matching the
// pixel range of the normalized training images.
type Decoder[B tensor.Backend] struct {
	hidden *nn.Linear[B]
	out    *nn.Linear[B]
	inDim  int
}

// NewDecoder creates a decoder for latent inputs of width in (the latent
// size, plus the number of classes for conditional models) producing
// outputs of width out.
func NewDecoder[B tensor.Backend](in, hidden, out int, rng *rand.Rand, backend B) *Decoder[B] {
	return &Decoder[B]{
		hidden: nn.NewLinear(in, hidden, rng, backend),
		out:    nn.NewLinear(hidden, out, rng, backend),
		inDim:  in,
	}
}

// Forward reconstructs a batch from latent codes.
//
// Input shape: [N, in]
// Output shape: [N, out], every element in [0, 1].
func (d *Decoder[B]) Forward(z *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := z.Shape()
	if len(shape) != 2 || shape[1] != d.inDim {
		panic(fmt.Sprintf("Decoder.Forward: expected input [N, %d], got shape %v", d.inDim, shape))
	}

	h := d.hidden.Forward(z).ReLU()
	return d.out.Forward(h).Sigmoid()
}

// Parameters returns all trainable parameters of the decoder.
func (d *Decoder[B]) Parameters() []*nn.Parameter[B] {
	params := d.hidden.Parameters()
	params = append(params, d.out.Parameters()...)
	return params
}
