// Package train drives epoch-based training of the variational models.
package train

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/latent-ml/latent/internal/autodiff"
	"github.com/latent-ml/latent/internal/mnist"
	"github.com/latent-ml/latent/internal/optim"
	"github.com/latent-ml/latent/internal/tensor"
	"github.com/latent-ml/latent/internal/vae"
)

// Config holds training hyperparameters.
// Zero values fall back to Epochs=5, BatchSize=128. LogInterval=0 disables
// per-batch progress lines.
type Config struct {
	Epochs      int
	BatchSize   int
	LogInterval int // print progress every N batches
}

func (c Config) withDefaults() Config {
	if c.Epochs == 0 {
		c.Epochs = 5
	}
	if c.BatchSize == 0 {
		c.BatchSize = 128
	}
	return c
}

// Stats reports per-epoch average loss (total loss / dataset size).
type Stats struct {
	EpochLosses []float64
}

// Trainer runs the optimization loop for a model on an autodiff backend.
//
// Per step: clear the tape, start recording, run the forward pass and loss,
// backpropagate from a unit output gradient, apply the optimizer, and clear
// the tape again. Loss values reported per batch are divided by the batch
// size; the loss tensor itself stays sum-reduced.
type Trainer[B tensor.Backend] struct {
	backend *autodiff.AutodiffBackend[B]
	opt     optim.Optimizer
	cfg     Config
	rng     *rand.Rand
}

// New creates a Trainer. The rng drives both epoch shuffling and the
// models' reparameterization noise.
func New[B tensor.Backend](backend *autodiff.AutodiffBackend[B], opt optim.Optimizer, cfg Config, rng *rand.Rand) *Trainer[B] {
	return &Trainer[B]{
		backend: backend,
		opt:     opt,
		cfg:     cfg.withDefaults(),
		rng:     rng,
	}
}

// TrainVAE trains an unconditional VAE on the dataset.
// Recording is switched off when training finishes, leaving the model in
// inference mode.
func (t *Trainer[B]) TrainVAE(model *vae.VAE[*autodiff.AutodiffBackend[B]], data *mnist.Dataset) (*Stats, error) {
	return t.run(data, func(batch *mnist.Batch[*autodiff.AutodiffBackend[B]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]] {
		xRecon, mu, logvar := model.Forward(batch.Images, t.rng)
		return vae.ELBO(xRecon, batch.Images, mu, logvar)
	})
}

// TrainCVAE trains a conditional VAE on the dataset. Labels are one-hot
// encoded per batch and concatenated inside the model.
func (t *Trainer[B]) TrainCVAE(model *vae.CVAE[*autodiff.AutodiffBackend[B]], data *mnist.Dataset) (*Stats, error) {
	numClasses := model.Config().NumClasses
	return t.run(data, func(batch *mnist.Batch[*autodiff.AutodiffBackend[B]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]] {
		y := vae.OneHot(batch.Labels, numClasses, t.backend)
		xRecon, mu, logvar := model.Forward(batch.Images, y, t.rng)
		return vae.CELBO(xRecon, batch.Images, mu, logvar)
	})
}

// run executes the epoch loop with a per-batch loss closure.
func (t *Trainer[B]) run(
	data *mnist.Dataset,
	lossFn func(batch *mnist.Batch[*autodiff.AutodiffBackend[B]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]],
) (*Stats, error) {
	tape := t.backend.Tape()
	stats := &Stats{EpochLosses: make([]float64, 0, t.cfg.Epochs)}

	numSamples := data.NumSamples()
	if numSamples == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		// Fresh shuffled batch order every epoch.
		batches, err := mnist.CreateBatches(data, t.cfg.BatchSize, t.rng, t.backend)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		batchLosses := make([]float64, 0, len(batches))
		seen := 0

		for i, batch := range batches {
			tape.Clear()
			tape.StartRecording()

			loss := lossFn(batch)
			lossVal := float64(loss.Item())
			batchLosses = append(batchLosses, lossVal)
			seen += batch.Size

			outputGrad := tensor.Ones[float32](tensor.Shape{}, t.backend)
			grads := tape.Backward(outputGrad.Raw(), t.backend)
			t.opt.Step(grads)

			tape.StopRecording()
			tape.Clear()

			if t.cfg.LogInterval > 0 && i%t.cfg.LogInterval == 0 {
				fmt.Printf("Train Epoch: %d [%d/%d]\tLoss: %.6f\n",
					epoch, seen, numSamples, lossVal/float64(batch.Size))
			}
		}

		avgLoss := floats.Sum(batchLosses) / float64(numSamples)
		stats.EpochLosses = append(stats.EpochLosses, avgLoss)
		if t.cfg.LogInterval > 0 {
			fmt.Printf("====> Epoch: %d Average loss: %.4f\n", epoch, avgLoss)
		}
	}

	// Leave the model in inference mode.
	tape.StopRecording()
	tape.Clear()

	return stats, nil
}
