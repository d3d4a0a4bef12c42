// Command latent trains a VAE and a conditional VAE on MNIST, then renders
// class-conditional samples from the trained CVAE as PNG grids.
//
// Usage:
//
//	latent -data ./mnist -out ./samples -epochs 5
//
// Without -data a small synthetic dataset is used, which exercises the full
// pipeline but produces uninteresting samples.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/latent-ml/latent/internal/autodiff"
	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/mnist"
	"github.com/latent-ml/latent/internal/optim"
	"github.com/latent-ml/latent/internal/render"
	"github.com/latent-ml/latent/internal/train"
	"github.com/latent-ml/latent/internal/vae"
)

func main() {
	var (
		dataDir    = flag.String("data", "", "directory with MNIST IDX files (empty: synthetic data)")
		outDir     = flag.String("out", "samples", "output directory for generated PNG grids")
		epochs     = flag.Int("epochs", 5, "number of training epochs")
		batchSize  = flag.Int("batch-size", 128, "mini-batch size")
		lr         = flag.Float64("lr", 1e-3, "Adam learning rate")
		hiddenDim  = flag.Int("hidden", 400, "hidden layer size")
		latentDim  = flag.Int("latent", 20, "latent space size")
		numSamples = flag.Int("samples", 5, "generated samples per digit class")
		maxSamples = flag.Int("max-samples", 0, "cap on training samples (0: all)")
		seed       = flag.Int64("seed", 1, "random seed")
		skipVAE    = flag.Bool("skip-vae", false, "skip the unconditional VAE run")
	)
	flag.Parse()

	if err := run(*dataDir, *outDir, *epochs, *batchSize, *lr, *hiddenDim, *latentDim,
		*numSamples, *maxSamples, *seed, *skipVAE); err != nil {
		log.Fatal(err)
	}
}

func run(dataDir, outDir string, epochs, batchSize int, lr float64, hiddenDim, latentDim,
	numSamples, maxSamples int, seed int64, skipVAE bool,
) error {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic training runs

	var data *mnist.Dataset
	if dataDir == "" {
		fmt.Println("no -data directory given, using synthetic dataset")
		data = mnist.Synthetic(512)
	} else {
		var err error
		data, err = mnist.Load(dataDir, true, maxSamples)
		if err != nil {
			return fmt.Errorf("loading MNIST: %w", err)
		}
	}
	fmt.Printf("dataset: %d samples\n", data.NumSamples())

	backend := autodiff.New(cpu.New())
	modelCfg := vae.Config{HiddenDim: hiddenDim, LatentDim: latentDim}
	trainCfg := train.Config{Epochs: epochs, BatchSize: batchSize, LogInterval: 100}

	if !skipVAE {
		fmt.Println("training VAE")
		model := vae.NewVAE(modelCfg, rng, backend)
		opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: float32(lr)}, backend)
		if _, err := train.New(backend, opt, trainCfg, rng).TrainVAE(model, data); err != nil {
			return fmt.Errorf("training VAE: %w", err)
		}
	}

	fmt.Println("training CVAE")
	cmodel := vae.NewCVAE(modelCfg, rng, backend)
	copt := optim.NewAdam(cmodel.Parameters(), optim.AdamConfig{LR: float32(lr)}, backend)
	if _, err := train.New(backend, copt, trainCfg, rng).TrainCVAE(cmodel, data); err != nil {
		return fmt.Errorf("training CVAE: %w", err)
	}

	// The trainer leaves the tape stopped; generation runs as pure inference.
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for class := 0; class < cmodel.Config().NumClasses; class++ {
		samples := vae.Generate(cmodel, class, numSamples, rng)
		path := filepath.Join(outDir, fmt.Sprintf("digit_%d.png", class))
		if err := render.SaveGrid(path, samples, numSamples); err != nil {
			return fmt.Errorf("rendering class %d: %w", class, err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	return nil
}
