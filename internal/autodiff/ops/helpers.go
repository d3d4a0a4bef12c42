package ops

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone on the matching path to avoid aliasing: later inplace ops must
	// not modify a gradient that is shared across the grads map.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Scalar target: sum everything.
	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// Broadcasting aligns shapes from the right; sum away the leading
	// dimensions the target never had.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum along dimensions where the target is 1.
	for i := 0; i < len(targetShape); i++ {
		if targetShape[i] == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// fillLike creates a tensor with the given shape, dtype, and device where
// every element is the scalar value held by the 0-D tensor value.
func fillLike(shape tensor.Shape, value *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, value.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("fillLike: %v", err))
	}

	switch value.DType() {
	case tensor.Float32:
		v := value.AsFloat32()[0]
		data := result.AsFloat32()
		for i := range data {
			data[i] = v
		}
	case tensor.Float64:
		v := value.AsFloat64()[0]
		data := result.AsFloat64()
		for i := range data {
			data[i] = v
		}
	default:
		panic(fmt.Sprintf("fillLike: unsupported dtype %s", value.DType()))
	}

	return result
}
