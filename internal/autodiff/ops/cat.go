package ops

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// CatOp represents concatenation along a dimension.
//
// Backward pass: the output gradient is split along dim at the original
// input boundaries; each input receives the slice matching its contribution.
// Conditional models rely on this so that gradients flow through the image
// part of a concatenated [image, one-hot] batch while the label part's
// gradient is simply discarded.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
	sizes  []int // size of each input along dim
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int, sizes []int) *CatOp {
	return &CatOp{
		inputs: inputs,
		output: output,
		dim:    dim,
		sizes:  sizes,
	}
}

// Backward splits the output gradient along dim at the input boundaries.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	gradShape := outputGrad.Shape()

	offset := 0
	for i, size := range op.sizes {
		sliceShape := gradShape.Clone()
		sliceShape[op.dim] = size

		grad, err := tensor.NewRaw(sliceShape, outputGrad.DType(), backend.Device())
		if err != nil {
			panic(fmt.Sprintf("cat backward: %v", err))
		}

		copySliceAlongDim(grad, outputGrad, op.dim, offset)
		grads[i] = grad
		offset += size
	}

	return grads
}

// copySliceAlongDim copies src[..., offset:offset+dst.Shape()[dim], ...] into dst.
func copySliceAlongDim(dst, src *tensor.RawTensor, dim, offset int) {
	dstShape := dst.Shape()
	srcShape := src.Shape()
	ndim := len(dstShape)

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= dstShape[i]
	}
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= dstShape[i]
	}

	elemSize := dst.DType().Size()
	dstBlock := dstShape[dim] * inner * elemSize
	srcBlock := srcShape[dim] * inner * elemSize
	srcOffset := offset * inner * elemSize

	dstData := dst.Data()
	srcData := src.Data()
	for o := 0; o < outer; o++ {
		copy(dstData[o*dstBlock:(o+1)*dstBlock], srcData[o*srcBlock+srcOffset:o*srcBlock+srcOffset+dstBlock])
	}
}

// Inputs returns the concatenated input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the concatenated output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}
