package cpu

import "github.com/latent-ml/latent/internal/tensor"

// inplaceOp applies op into a: a[i] = op(a[i], b[i]).
// Requires equal lengths and a uniquely-owned buffer.
func inplaceOp[T tensor.DType](a, b []T, op func(x, y T) T) {
	for i := range a {
		a[i] = op(a[i], b[i])
	}
}

// vectorizedOp applies op element-wise: dst[i] = op(a[i], b[i]).
// Requires equal lengths.
func vectorizedOp[T tensor.DType](dst, a, b []T, op func(x, y T) T) {
	for i := range dst {
		dst[i] = op(a[i], b[i])
	}
}

// broadcastOp applies op with stride-based broadcasting of a and b to outShape.
func broadcastOp[T tensor.DType](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op func(x, y T) T) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = op(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides computes strides for broadcasting inShape to outShape.
// Broadcast dimensions (size 1 or padded on the left) get stride 0 so the
// single element repeats along them.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// flatIndex maps a flat output index to the flat source index given
// broadcast-adjusted source strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}

// transposeData permutes src into dst according to axes.
func transposeData[T tensor.DType](dst, src []T, srcShape tensor.Shape, axes []int) {
	ndim := len(srcShape)

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = srcShape[ax]
	}

	srcStrides := srcShape.ComputeStrides()
	dstStrides := newShape.ComputeStrides()

	for dstIdx := range dst {
		// Decompose the destination index into coordinates, then map each
		// coordinate back through the axis permutation.
		rem := dstIdx
		srcIdx := 0
		for i := 0; i < ndim; i++ {
			coord := rem / dstStrides[i]
			rem %= dstStrides[i]
			srcIdx += coord * srcStrides[axes[i]]
		}
		dst[dstIdx] = src[srcIdx]
	}
}
