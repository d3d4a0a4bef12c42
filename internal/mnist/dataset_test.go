package mnist_test

import (
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/mnist"
)

// writeIDXFiles writes a minimal MNIST training pair into dir.
// Pixel value i of image n is (n*31 + i) % 256 so samples are distinguishable.
func writeIDXFiles(t *testing.T, dir string, numSamples int, labels []byte) {
	t.Helper()
	require.Len(t, labels, numSamples)

	images, err := os.Create(filepath.Join(dir, "train-images-idx3-ubyte"))
	require.NoError(t, err)
	defer images.Close()

	require.NoError(t, binary.Write(images, binary.BigEndian, uint32(2051)))
	require.NoError(t, binary.Write(images, binary.BigEndian, uint32(numSamples)))
	require.NoError(t, binary.Write(images, binary.BigEndian, uint32(28)))
	require.NoError(t, binary.Write(images, binary.BigEndian, uint32(28)))

	pixels := make([]byte, 784)
	for n := 0; n < numSamples; n++ {
		for i := range pixels {
			pixels[i] = byte((n*31 + i) % 256)
		}
		_, err = images.Write(pixels)
		require.NoError(t, err)
	}

	labelFile, err := os.Create(filepath.Join(dir, "train-labels-idx1-ubyte"))
	require.NoError(t, err)
	defer labelFile.Close()

	require.NoError(t, binary.Write(labelFile, binary.BigEndian, uint32(2049)))
	require.NoError(t, binary.Write(labelFile, binary.BigEndian, uint32(numSamples)))
	_, err = labelFile.Write(labels)
	require.NoError(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeIDXFiles(t, dir, 3, []byte{7, 0, 9})

	data, err := mnist.Load(dir, true, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, data.NumSamples())
	assert.Equal(t, []int{7, 0, 9}, data.Labels)

	// Pixels are normalized to [0, 1]: image 1, pixel 4 = (31+4)/255.
	assert.InDelta(t, 35.0/255.0, data.Images[1][4], 1e-6)
	assert.Len(t, data.Images[0], mnist.ImageSize)
}

func TestLoad_MaxSamples(t *testing.T) {
	dir := t.TempDir()
	writeIDXFiles(t, dir, 5, []byte{0, 1, 2, 3, 4})

	data, err := mnist.Load(dir, true, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, data.NumSamples())
	assert.Equal(t, []int{0, 1}, data.Labels)
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := mnist.Load(t.TempDir(), true, 0)
	require.Error(t, err)
}

func TestLoad_BadMagic(t *testing.T) {
	dir := t.TempDir()
	writeIDXFiles(t, dir, 1, []byte{0})

	// Corrupt the image magic number.
	path := filepath.Join(dir, "train-images-idx3-ubyte")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[3] = 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = mnist.Load(dir, true, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestCreateBatches_Sizes(t *testing.T) {
	backend := cpu.New()
	data := mnist.Synthetic(10)

	batches, err := mnist.CreateBatches(data, 4, nil, backend)
	require.NoError(t, err)

	// 10 samples at batch size 4: 4 + 4 + 2.
	require.Len(t, batches, 3)
	assert.Equal(t, 4, batches[0].Size)
	assert.Equal(t, 4, batches[1].Size)
	assert.Equal(t, 2, batches[2].Size)

	assert.Equal(t, 4, batches[0].Images.Shape()[0])
	assert.Equal(t, mnist.ImageSize, batches[0].Images.Shape()[1])
	assert.Len(t, batches[0].Labels, 4)
}

func TestCreateBatches_NilRNGKeepsOrder(t *testing.T) {
	backend := cpu.New()
	data := mnist.Synthetic(6)

	batches, err := mnist.CreateBatches(data, 3, nil, backend)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, batches[0].Labels)
	assert.Equal(t, []int{3, 4, 5}, batches[1].Labels)
}

func TestCreateBatches_ShuffleIsSeeded(t *testing.T) {
	backend := cpu.New()
	data := mnist.Synthetic(32)

	a, err := mnist.CreateBatches(data, 8, rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)
	b, err := mnist.CreateBatches(data, 8, rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Labels, b[i].Labels, "batch %d must match under the same seed", i)
	}

	// A shuffle over 32 samples leaving everything in place is implausible.
	c, err := mnist.CreateBatches(data, 32, rand.New(rand.NewSource(7)), backend)
	require.NoError(t, err)
	assert.NotEqual(t, data.Labels, c[0].Labels)
}

func TestCreateBatches_ImageDataFollowsShuffle(t *testing.T) {
	backend := cpu.New()
	data := mnist.Synthetic(20)

	batches, err := mnist.CreateBatches(data, 5, rand.New(rand.NewSource(3)), backend)
	require.NoError(t, err)

	// Each batched row must still be the image of its label's sample. The
	// synthetic band for class c starts at row 2c, column 5.
	for _, batch := range batches {
		rows := batch.Images.Data()
		for i, label := range batch.Labels {
			row := rows[i*mnist.ImageSize : (i+1)*mnist.ImageSize]
			assert.Equal(t, float32(0.8), row[(label*2)*28+5], "label %d", label)
		}
	}
}

func TestCreateBatches_InvalidBatchSize(t *testing.T) {
	backend := cpu.New()
	data := mnist.Synthetic(4)

	_, err := mnist.CreateBatches(data, 0, nil, backend)
	require.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	data := mnist.Synthetic(25)

	assert.Equal(t, 25, data.NumSamples())
	for i, label := range data.Labels {
		assert.Equal(t, i%10, label)
	}
	for _, img := range data.Images {
		assert.Len(t, img, mnist.ImageSize)
		for _, v := range img {
			assert.True(t, v == 0 || v == 0.8)
		}
	}
}
