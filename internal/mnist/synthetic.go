package mnist

// Synthetic builds a small in-memory dataset of simple digit-like patterns,
// one pattern per class, repeated until numSamples. It keeps the pipeline
// runnable without the IDX files on disk.
//
// Each class fills a horizontal band whose position depends on the digit
// value. The patterns are trivially separable, which makes them useful for
// smoke-testing training: the loss should drop quickly.
func Synthetic(numSamples int) *Dataset {
	images := make([][]float32, numSamples)
	labels := make([]int, numSamples)

	for i := 0; i < numSamples; i++ {
		class := i % 10
		labels[i] = class

		img := make([]float32, ImageSize)
		startRow := class * 2
		for row := startRow; row < startRow+8 && row < 28; row++ {
			for col := 5; col < 23; col++ {
				img[row*28+col] = 0.8
			}
		}
		images[i] = img
	}

	return &Dataset{Images: images, Labels: labels}
}
