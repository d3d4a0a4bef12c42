package vae_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latent-ml/latent/internal/autodiff"
	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/tensor"
	"github.com/latent-ml/latent/internal/vae"
)

func TestOneHot(t *testing.T) {
	backend := autodiff.New(cpu.New())

	y := vae.OneHot([]int{3, 7}, 10, backend)
	assert.Equal(t, tensor.Shape{2, 10}, y.Shape())

	data := y.Data()
	for i, v := range data {
		switch i {
		case 3, 17: // row 0 column 3, row 1 column 7
			assert.Equal(t, float32(1), v)
		default:
			assert.Equal(t, float32(0), v)
		}
	}
}

func TestOneHot_RowSums(t *testing.T) {
	backend := autodiff.New(cpu.New())

	y := vae.OneHot([]int{0, 4, 9}, 10, backend)
	sums := y.SumDim(1, false)
	assert.Equal(t, []float32{1, 1, 1}, sums.Data())
}

func TestOneHot_Panics(t *testing.T) {
	backend := autodiff.New(cpu.New())

	assert.Panics(t, func() { vae.OneHot([]int{10}, 10, backend) }, "label == numClasses")
	assert.Panics(t, func() { vae.OneHot([]int{-1}, 10, backend) }, "negative label")
	assert.Panics(t, func() { vae.OneHot([]int{0}, 0, backend) }, "no classes")
}

func TestCVAE_ForwardShapes(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)
	x := tensor.Rand[float32](tensor.Shape{2, 784}, rng, backend)
	y := vae.OneHot([]int{3, 7}, model.Config().NumClasses, backend)

	xRecon, mu, logvar := model.Forward(x, y, rng)

	require.Equal(t, tensor.Shape{2, 784}, xRecon.Shape())
	require.Equal(t, tensor.Shape{2, 8}, mu.Shape())
	require.Equal(t, tensor.Shape{2, 8}, logvar.Shape())

	for _, v := range xRecon.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestCVAE_LayerWidthsIncludeClasses(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)

	// [x, y] feeds the encoder and [z, y] feeds the decoder, so both first
	// layers are widened by NumClasses.
	assert.Panics(t, func() {
		bare := tensor.Zeros[float32](tensor.Shape{2, 784}, backend)
		model.Encoder().Forward(bare)
	}, "encoder expects the concatenated width")

	assert.Panics(t, func() {
		bare := tensor.Zeros[float32](tensor.Shape{2, 8}, backend)
		model.Decoder().Forward(bare)
	}, "decoder expects the concatenated width")
}

func TestCVAE_ConditioningChangesOutput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)
	x := tensor.Rand[float32](tensor.Shape{1, 784}, rng, backend)

	// Same input and same noise, different labels.
	y3 := vae.OneHot([]int{3}, 10, backend)
	y7 := vae.OneHot([]int{7}, 10, backend)

	recon3, _, _ := model.Forward(x, y3, rand.New(rand.NewSource(5)))
	recon7, _, _ := model.Forward(x, y7, rand.New(rand.NewSource(5)))

	assert.NotEqual(t, recon3.Data(), recon7.Data(), "the label must influence the reconstruction")
}

func TestCVAE_CELBOTrainStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(2))

	model := vae.NewCVAE(smallCfg, rng, backend)
	backend.Tape().StartRecording()

	x := tensor.Rand[float32](tensor.Shape{2, 784}, rng, backend)
	y := vae.OneHot([]int{3, 7}, 10, backend)

	xRecon, mu, logvar := model.Forward(x, y, rng)
	vae.CELBO(xRecon, x, mu, logvar)

	outputGrad := tensor.Ones[float32](tensor.Shape{}, backend)
	grads := backend.Tape().Backward(outputGrad.Raw(), backend)

	// Every parameter of both halves must receive a gradient.
	for _, p := range model.Parameters() {
		assert.NotNil(t, grads[p.Tensor().Raw()], "missing gradient for %s", p.Name())
	}
}

func TestGenerate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)

	// Untrained weights still produce validly shaped, bounded samples.
	samples := vae.Generate(model, 3, 5, rng)
	assert.Equal(t, tensor.Shape{5, 28, 28}, samples.Shape())

	for _, v := range samples.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)

	a := vae.Generate(model, 0, 2, rand.New(rand.NewSource(11)))
	b := vae.Generate(model, 0, 2, rand.New(rand.NewSource(11)))
	assert.Equal(t, a.Data(), b.Data(), "same seed, same samples")

	c := vae.Generate(model, 0, 2, rand.New(rand.NewSource(12)))
	assert.NotEqual(t, a.Data(), c.Data())
}

func TestGenerate_ClassesDiffer(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)

	a := vae.Generate(model, 1, 1, rand.New(rand.NewSource(11)))
	b := vae.Generate(model, 8, 1, rand.New(rand.NewSource(11)))
	assert.NotEqual(t, a.Data(), b.Data(), "the class label must steer the decoder")
}

func TestGenerate_Panics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	model := vae.NewCVAE(smallCfg, rng, backend)

	assert.Panics(t, func() { vae.Generate(model, 0, 0, rng) }, "n must be positive")
	assert.Panics(t, func() { vae.Generate(model, 10, 1, rng) }, "class out of range")

	odd := vae.NewCVAE(vae.Config{InputDim: 10, HiddenDim: 4, LatentDim: 2}, rng, backend)
	assert.Panics(t, func() { vae.Generate(odd, 0, 1, rng) }, "non-square input dim")
}
