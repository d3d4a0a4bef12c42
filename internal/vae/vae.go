package vae

import (
	"fmt"
	"math/rand"

	"github.com/latent-ml/latent/internal/nn"
	"github.com/latent-ml/latent/internal/tensor"
)

// Config holds the model dimensions.
// Zero values fall back to the MNIST defaults: InputDim=784, HiddenDim=400,
// LatentDim=20, NumClasses=10.
type Config struct {
	InputDim   int // flattened image size (28*28)
	HiddenDim  int
	LatentDim  int
	NumClasses int // used by the conditional model only
}

func (c Config) withDefaults() Config {
	if c.InputDim == 0 {
		c.InputDim = 784
	}
	if c.HiddenDim == 0 {
		c.HiddenDim = 400
	}
	if c.LatentDim == 0 {
		c.LatentDim = 20
	}
	if c.NumClasses == 0 {
		c.NumClasses = 10
	}
	return c
}

// VAE is a variational autoencoder over flattened grayscale images.
//
// The forward pass encodes the input to a diagonal Gaussian posterior,
// draws a latent sample via the reparameterization trick, and decodes it
// back to pixel space.
type VAE[B tensor.Backend] struct {
	encoder *Encoder[B]
	decoder *Decoder[B]
	cfg     Config
	backend B
}

// NewVAE creates a VAE with the given dimensions.
// The rng drives weight initialization.
func NewVAE[B tensor.Backend](cfg Config, rng *rand.Rand, backend B) *VAE[B] {
	cfg = cfg.withDefaults()
	return &VAE[B]{
		encoder: NewEncoder(cfg.InputDim, cfg.HiddenDim, cfg.LatentDim, rng, backend),
		decoder: NewDecoder(cfg.LatentDim, cfg.HiddenDim, cfg.InputDim, rng, backend),
		cfg:     cfg,
		backend: backend,
	}
}

// Forward runs a full encode-sample-decode pass.
//
// Input shape: [N, InputDim].
// Returns the reconstruction [N, InputDim] plus the posterior parameters
// mu and logvar, both [N, LatentDim]. A fresh eps is drawn from rng.
func (m *VAE[B]) Forward(x *tensor.Tensor[float32, B], rng *rand.Rand) (xRecon, mu, logvar *tensor.Tensor[float32, B]) {
	mu, logvar = m.encoder.Forward(x)
	z := Reparameterize(mu, logvar, rng)
	return m.decoder.Forward(z), mu, logvar
}

// Reconstruct flattens x to [N, InputDim], runs the forward pass, and
// returns only the reconstruction. Accepts [N, InputDim] or [N, H, W]
// batches.
func (m *VAE[B]) Reconstruct(x *tensor.Tensor[float32, B], rng *rand.Rand) *tensor.Tensor[float32, B] {
	xRecon, _, _ := m.Forward(flatten(x, m.cfg.InputDim), rng)
	return xRecon
}

// Encoder returns the encoder sub-module.
func (m *VAE[B]) Encoder() *Encoder[B] {
	return m.encoder
}

// Decoder returns the decoder sub-module.
func (m *VAE[B]) Decoder() *Decoder[B] {
	return m.decoder
}

// Config returns the model dimensions.
func (m *VAE[B]) Config() Config {
	return m.cfg
}

// Parameters returns all trainable parameters of the model.
func (m *VAE[B]) Parameters() []*nn.Parameter[B] {
	return append(m.encoder.Parameters(), m.decoder.Parameters()...)
}

// flatten reshapes a batch to [N, dim], accepting any trailing layout whose
// element count per row matches dim.
func flatten[B tensor.Backend](x *tensor.Tensor[float32, B], dim int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) == 2 && shape[1] == dim {
		return x
	}
	n := shape[0]
	if x.NumElements() != n*dim {
		panic(fmt.Sprintf("flatten: cannot reshape %v to [%d, %d]", shape, n, dim))
	}
	return x.Reshape(n, dim)
}
