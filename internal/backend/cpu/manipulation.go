package cpu

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// Cat concatenates tensors along the given dimension.
// All tensors must share dtype and agree on every dimension except dim.
func (cpu *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: invalid dimension %d for %dD tensor", dim, ndim))
	}

	catSize := 0
	for i, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch at tensor %d: %s vs %s", i, t.DType(), first.DType()))
		}
		if len(t.Shape()) != ndim {
			panic(fmt.Sprintf("cat: rank mismatch at tensor %d: %d vs %d", i, len(t.Shape()), ndim))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && t.Shape()[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: shape mismatch at tensor %d, dimension %d: %v vs %v",
					i, d, t.Shape(), first.Shape()))
			}
		}
		catSize += t.Shape()[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize
	result := newResult("cat", outShape, first.DType(), cpu.device)

	// Copy block-wise: each source tensor contributes contiguous rows of
	// dimSize*inner elements per outer index.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= outShape[i]
	}
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= outShape[i]
	}

	elemSize := first.DType().Size()
	dstRow := catSize * inner * elemSize
	dst := result.Data()

	dstOffset := 0
	for _, t := range tensors {
		srcBlock := t.Shape()[dim] * inner * elemSize
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*dstRow+dstOffset:o*dstRow+dstOffset+srcBlock], src[o*srcBlock:(o+1)*srcBlock])
		}
		dstOffset += srcBlock
	}

	return result
}
