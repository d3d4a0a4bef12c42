package vae

import (
	"math/rand"

	"github.com/latent-ml/latent/internal/tensor"
)

// Reparameterize draws a latent sample z = mu + eps * exp(0.5 * logvar)
// with eps ~ N(0, I) drawn fresh from rng on every call.
//
// The reparameterization trick keeps the sample differentiable with respect
// to mu and logvar: eps enters the graph as a constant leaf, so gradients
// flow through the deterministic transform only. Noise is drawn on every
// call regardless of whether the tape is recording, so evaluation passes
// are stochastic too.
func Reparameterize[B tensor.Backend](mu, logvar *tensor.Tensor[float32, B], rng *rand.Rand) *tensor.Tensor[float32, B] {
	std := logvar.MulScalar(0.5).Exp()
	eps := tensor.Randn[float32](mu.Shape(), rng, mu.Backend())
	return mu.Add(eps.Mul(std))
}
