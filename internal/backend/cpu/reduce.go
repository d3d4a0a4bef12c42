package cpu

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// Sum reduces the whole tensor to a 0-D scalar containing the total sum.
// float32 inputs accumulate in float64 to limit rounding drift over large
// reductions.
func (cpu *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := newResult("sum", tensor.Shape{}, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		var acc float64
		for _, v := range x.AsFloat32() {
			acc += float64(v)
		}
		result.AsFloat32()[0] = float32(acc)
	case tensor.Float64:
		var acc float64
		for _, v := range x.AsFloat64() {
			acc += v
		}
		result.AsFloat64()[0] = acc
	case tensor.Int32:
		var acc int32
		for _, v := range x.AsInt32() {
			acc += v
		}
		result.AsInt32()[0] = acc
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// SumDim sums along a single dimension. When keepDim is true the reduced
// dimension is kept with size 1, otherwise it is removed.
func (cpu *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sum_dim: invalid dimension %d for %dD tensor", dim, ndim))
	}

	outShape := make(tensor.Shape, 0, ndim)
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}

	result := newResult("sum_dim", outShape, x.DType(), cpu.device)

	// Iteration splits the flat index into (outer, dim, inner) blocks:
	// outer spans dimensions before dim, inner spans dimensions after.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}

	switch x.DType() {
	case tensor.Float32:
		sumDimData(result.AsFloat32(), x.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		sumDimData(result.AsFloat64(), x.AsFloat64(), outer, dimSize, inner)
	case tensor.Int32:
		sumDimData(result.AsInt32(), x.AsInt32(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("sum_dim: unsupported dtype %s", x.DType()))
	}

	return result
}

func sumDimData[T tensor.DType](dst, src []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var acc T
			base := o * dimSize * inner
			for d := 0; d < dimSize; d++ {
				acc += src[base+d*inner+in]
			}
			dst[o*inner+in] = acc
		}
	}
}
