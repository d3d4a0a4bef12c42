package train_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latent-ml/latent/internal/autodiff"
	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/mnist"
	"github.com/latent-ml/latent/internal/optim"
	"github.com/latent-ml/latent/internal/train"
	"github.com/latent-ml/latent/internal/vae"
)

var smallCfg = vae.Config{InputDim: 784, HiddenDim: 32, LatentDim: 8}

func TestTrainVAE_LossDecreases(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3}, backend)
	trainer := train.New(backend, opt, train.Config{Epochs: 4, BatchSize: 32}, rng)

	data := mnist.Synthetic(128)
	stats, err := trainer.TrainVAE(model, data)
	require.NoError(t, err)

	require.Len(t, stats.EpochLosses, 4)
	for _, loss := range stats.EpochLosses {
		assert.False(t, math.IsNaN(loss), "loss must stay finite")
		assert.False(t, math.IsInf(loss, 0))
	}
	assert.Less(t, stats.EpochLosses[3], stats.EpochLosses[0],
		"training must reduce the average loss on separable data")
}

func TestTrainCVAE_LossDecreases(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(2))

	model := vae.NewCVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3}, backend)
	trainer := train.New(backend, opt, train.Config{Epochs: 4, BatchSize: 32}, rng)

	data := mnist.Synthetic(128)
	stats, err := trainer.TrainCVAE(model, data)
	require.NoError(t, err)

	require.Len(t, stats.EpochLosses, 4)
	assert.Less(t, stats.EpochLosses[3], stats.EpochLosses[0])
}

func TestTrain_ReducesLossOnFixedBatch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(3))

	model := vae.NewVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3}, backend)

	data := mnist.Synthetic(128)
	batches, err := mnist.CreateBatches(data, 32, nil, backend)
	require.NoError(t, err)
	batch := batches[0]

	// Fixed noise seed so before and after are comparable.
	lossAt := func(seed int64) float64 {
		noise := rand.New(rand.NewSource(seed))
		xRecon, mu, logvar := model.Forward(batch.Images, noise)
		return float64(vae.ELBO(xRecon, batch.Images, mu, logvar).Item())
	}

	before := lossAt(42)

	trainer := train.New(backend, opt, train.Config{Epochs: 2, BatchSize: 32}, rng)
	_, err = trainer.TrainVAE(model, data)
	require.NoError(t, err)

	after := lossAt(42)
	assert.Less(t, after, before, "a short training run must reduce the loss on a held batch")
}

func TestTrain_LeavesTapeStopped(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(4))

	model := vae.NewVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3}, backend)
	trainer := train.New(backend, opt, train.Config{Epochs: 1, BatchSize: 16}, rng)

	_, err := trainer.TrainVAE(model, mnist.Synthetic(32))
	require.NoError(t, err)

	tape := backend.Tape()
	assert.False(t, tape.IsRecording(), "trainer must leave the model in inference mode")
	assert.Equal(t, 0, tape.NumOps())
}

func TestTrain_EmptyDataset(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(5))

	model := vae.NewVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3}, backend)
	trainer := train.New(backend, opt, train.Config{Epochs: 1, BatchSize: 16}, rng)

	_, err := trainer.TrainVAE(model, &mnist.Dataset{})
	require.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(6))

	model := vae.NewVAE(smallCfg, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{}, backend)

	// Zero-value config runs 5 epochs at batch size 128.
	trainer := train.New(backend, opt, train.Config{}, rng)
	stats, err := trainer.TrainVAE(model, mnist.Synthetic(64))
	require.NoError(t, err)
	assert.Len(t, stats.EpochLosses, 5)
}
