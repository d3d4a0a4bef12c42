// Package vae implements the variational autoencoder and its
// class-conditional variant, together with their evidence lower bound
// losses, one-hot label encoding, and decoder-only sample generation.
package vae

import (
	"fmt"
	"math/rand"

	"github.com/latent-ml/latent/internal/nn"
	"github.com/latent-ml/latent/internal/tensor"
)

// Encoder maps flattened inputs to the parameters of a diagonal Gaussian
// posterior over the latent space.
//
// Architecture:
//
//	input [N, in] -> Linear(in, hidden) -> ReLU -> Linear(hidden, latent) = mu
//	                                            -> Linear(hidden, latent) = logvar
//
// The two heads share the hidden activation. The encoder itself is
// deterministic; sampling happens in Reparameterize.
type Encoder[B tensor.Backend] struct {
	hidden     *nn.Linear[B]
	muHead     *nn.Linear[B]
	logvarHead *nn.Linear[B]
	inDim      int
}

// NewEncoder creates an encoder for inputs of width in (the flattened image
// size, plus the number of classes for conditional models).
func NewEncoder[B tensor.Backend](in, hidden, latent int, rng *rand.Rand, backend B) *Encoder[B] {
	return &Encoder[B]{
		hidden:     nn.NewLinear(in, hidden, rng, backend),
		muHead:     nn.NewLinear(hidden, latent, rng, backend),
		logvarHead: nn.NewLinear(hidden, latent, rng, backend),
		inDim:      in,
	}
}

// Forward computes the posterior parameters for a batch.
//
// Input shape: [N, in]
// Returns mu and logvar, both of shape [N, latent].
func (e *Encoder[B]) Forward(x *tensor.Tensor[float32, B]) (mu, logvar *tensor.Tensor[float32, B]) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != e.inDim {
		panic(fmt.Sprintf("Encoder.Forward: expected input [N, %d], got shape %v", e.inDim, shape))
	}

	h := e.hidden.Forward(x).ReLU()
	return e.muHead.Forward(h), e.logvarHead.Forward(h)
}

// Parameters returns all trainable parameters of the encoder.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	params := e.hidden.Parameters()
	params = append(params, e.muHead.Parameters()...)
	params = append(params, e.logvarHead.Parameters()...)
	return params
}
