package vae

import (
	"math/rand"

	"github.com/latent-ml/latent/internal/nn"
	"github.com/latent-ml/latent/internal/tensor"
)

// CVAE is a class-conditional variational autoencoder.
//
// The one-hot label is concatenated to the model input at BOTH stages:
// [x, y] feeds the encoder and [z, y] feeds the decoder. Conditioning on
// the label at decode time is what makes class-targeted generation work.
type CVAE[B tensor.Backend] struct {
	encoder *Encoder[B]
	decoder *Decoder[B]
	cfg     Config
	backend B
}

// NewCVAE creates a CVAE with the given dimensions.
// The rng drives weight initialization.
func NewCVAE[B tensor.Backend](cfg Config, rng *rand.Rand, backend B) *CVAE[B] {
	cfg = cfg.withDefaults()
	return &CVAE[B]{
		encoder: NewEncoder(cfg.InputDim+cfg.NumClasses, cfg.HiddenDim, cfg.LatentDim, rng, backend),
		decoder: NewDecoder(cfg.LatentDim+cfg.NumClasses, cfg.HiddenDim, cfg.InputDim, rng, backend),
		cfg:     cfg,
		backend: backend,
	}
}

// Forward runs a conditional encode-sample-decode pass.
//
// x has shape [N, InputDim] and y is a one-hot label batch [N, NumClasses].
// Returns the reconstruction [N, InputDim] plus mu and logvar [N, LatentDim].
func (m *CVAE[B]) Forward(x, y *tensor.Tensor[float32, B], rng *rand.Rand) (xRecon, mu, logvar *tensor.Tensor[float32, B]) {
	xy := tensor.Cat([]*tensor.Tensor[float32, B]{x, y}, 1)
	mu, logvar = m.encoder.Forward(xy)

	z := Reparameterize(mu, logvar, rng)

	zy := tensor.Cat([]*tensor.Tensor[float32, B]{z, y}, 1)
	return m.decoder.Forward(zy), mu, logvar
}

// Reconstruct flattens x to [N, InputDim], runs the conditional forward
// pass, and returns only the reconstruction.
func (m *CVAE[B]) Reconstruct(x, y *tensor.Tensor[float32, B], rng *rand.Rand) *tensor.Tensor[float32, B] {
	xRecon, _, _ := m.Forward(flatten(x, m.cfg.InputDim), y, rng)
	return xRecon
}

// Encoder returns the encoder sub-module.
func (m *CVAE[B]) Encoder() *Encoder[B] {
	return m.encoder
}

// Decoder returns the decoder sub-module.
func (m *CVAE[B]) Decoder() *Decoder[B] {
	return m.decoder
}

// Config returns the model dimensions.
func (m *CVAE[B]) Config() Config {
	return m.cfg
}

// Parameters returns all trainable parameters of the model.
func (m *CVAE[B]) Parameters() []*nn.Parameter[B] {
	return append(m.encoder.Parameters(), m.decoder.Parameters()...)
}
