package cpu

import (
	"fmt"
	"math"

	"github.com/latent-ml/latent/internal/tensor"
)

// Exp computes element-wise exponential: exp(x).
func (cpu *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp)
}

// ReLU computes element-wise rectified linear unit: max(0, x).
func (cpu *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("relu", x,
		func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		},
		func(v float64) float64 {
			if v > 0 {
				return v
			}
			return 0
		})
}

// Sigmoid computes the element-wise logistic function: 1 / (1 + exp(-x)).
// Output lies in (0, 1) for finite inputs; saturates to 0 or 1 for
// large-magnitude inputs.
func (cpu *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sigmoid", x,
		func(v float32) float32 { return float32(1.0 / (1.0 + math.Exp(float64(-v)))) },
		func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}

// unaryFloat dispatches an element-wise unary operation on float tensors.
func (cpu *Backend) unaryFloat(name string, x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	result := newResult(name, x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = f32(v)
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = f64(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", name, x.DType()))
	}

	return result
}
