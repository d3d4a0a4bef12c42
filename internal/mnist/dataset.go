package mnist

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/latent-ml/latent/internal/tensor"
)

// ImageSize is the flattened size of one 28x28 grayscale digit.
const ImageSize = 784

// Dataset holds MNIST images and labels in memory.
type Dataset struct {
	Images [][]float32 // [num_samples][784], normalized to [0, 1]
	Labels []int       // [num_samples], digits 0-9
}

// Load reads the official IDX binary files from dataDir.
//
// Expected files:
//   - train-images-idx3-ubyte / train-labels-idx1-ubyte (train=true)
//   - t10k-images-idx3-ubyte / t10k-labels-idx1-ubyte (train=false)
//
// Pixel values are normalized from 0-255 to [0, 1]. maxSamples caps the
// number of loaded samples (0 loads everything).
func Load(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	var imageFile, labelFile string
	if train {
		imageFile = filepath.Join(dataDir, "train-images-idx3-ubyte")
		labelFile = filepath.Join(dataDir, "train-labels-idx1-ubyte")
	} else {
		imageFile = filepath.Join(dataDir, "t10k-images-idx3-ubyte")
		labelFile = filepath.Join(dataDir, "t10k-labels-idx1-ubyte")
	}

	imagesRaw, err := readIDXImages(imageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	labelsRaw, err := readIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	if len(imagesRaw) != len(labelsRaw) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(imagesRaw), len(labelsRaw))
	}

	numSamples := len(imagesRaw)
	if maxSamples > 0 && numSamples > maxSamples {
		numSamples = maxSamples
	}

	images := make([][]float32, numSamples)
	labels := make([]int, numSamples)

	for i := 0; i < numSamples; i++ {
		if len(imagesRaw[i]) != ImageSize {
			return nil, fmt.Errorf("image %d has %d pixels, want %d", i, len(imagesRaw[i]), ImageSize)
		}
		images[i] = make([]float32, ImageSize)
		for j := 0; j < ImageSize; j++ {
			images[i][j] = float32(imagesRaw[i][j]) / 255.0
		}
		labels[i] = int(labelsRaw[i])
	}

	return &Dataset{Images: images, Labels: labels}, nil
}

// NumSamples returns the total number of samples in the dataset.
func (d *Dataset) NumSamples() int {
	return len(d.Images)
}

// Batch is a mini-batch of flattened images and their integer labels.
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B] // [size, 784]
	Labels []int                      // [size]
	Size   int
}

// CreateBatches splits the dataset into mini-batches.
//
// When rng is non-nil the sample order is shuffled (Fisher-Yates) before
// batching; the trainer passes a fresh rng-driven order each epoch. The
// last batch may be smaller when the dataset doesn't divide evenly.
func CreateBatches[B tensor.Backend](data *Dataset, batchSize int, rng *rand.Rand, backend B) ([]*Batch[B], error) {
	numSamples := data.NumSamples()
	if numSamples != len(data.Labels) {
		return nil, fmt.Errorf("images and labels length mismatch: %d vs %d", numSamples, len(data.Labels))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, numSamples)
	for i := range indices {
		indices[i] = i
	}
	if rng != nil {
		rng.Shuffle(numSamples, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	numBatches := (numSamples + batchSize - 1) / batchSize
	batches := make([]*Batch[B], 0, numBatches)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		size := end - start

		raw, err := tensor.NewRaw(tensor.Shape{size, ImageSize}, tensor.Float32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create batch tensor: %w", err)
		}

		imagesData := raw.AsFloat32()
		labels := make([]int, size)
		for j := start; j < end; j++ {
			idx := indices[j]
			copy(imagesData[(j-start)*ImageSize:(j-start+1)*ImageSize], data.Images[idx])
			labels[j-start] = data.Labels[idx]
		}

		batches = append(batches, &Batch[B]{
			Images: tensor.New[float32, B](raw, backend),
			Labels: labels,
			Size:   size,
		})
	}

	return batches, nil
}
