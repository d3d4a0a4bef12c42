package cpu

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
// The scalar is converted to the tensor's dtype.
func (cpu *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("mul_scalar", scalar)
	result := newResult("mul_scalar", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		sf := float32(s)
		for i, v := range src {
			dst[i] = v * sf
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Int32:
		src := x.AsInt32()
		dst := result.AsInt32()
		si := int32(s)
		for i, v := range src {
			dst[i] = v * si
		}
	default:
		panic(fmt.Sprintf("mul_scalar: unsupported dtype %s", x.DType()))
	}

	return result
}

// AddScalar adds a scalar to every element.
// The scalar is converted to the tensor's dtype.
func (cpu *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("add_scalar", scalar)
	result := newResult("add_scalar", x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		sf := float32(s)
		for i, v := range src {
			dst[i] = v + sf
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Int32:
		src := x.AsInt32()
		dst := result.AsInt32()
		si := int32(s)
		for i, v := range src {
			dst[i] = v + si
		}
	default:
		panic(fmt.Sprintf("add_scalar: unsupported dtype %s", x.DType()))
	}

	return result
}

// toFloat64 converts a scalar of any supported numeric type to float64.
func toFloat64(name string, scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
