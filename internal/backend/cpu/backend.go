// Package cpu implements the CPU compute backend with BLAS-backed matmul.
package cpu

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// Backend implements tensor operations on CPU.
type Backend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *Backend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y },
		func(x, y int32) int32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y },
		func(x, y int32) int32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y },
		func(x, y int32) int32 { return x * y })
}

// Div performs element-wise division with broadcasting.
// Division by zero follows IEEE 754 for floats (Inf/NaN propagate).
func (cpu *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y },
		func(x, y int32) int32 { return x / y })
}

// binary dispatches an element-wise binary operation by dtype.
// Same-shape operands take a fast path: inplace when a owns its buffer,
// plain vectorized loop otherwise. Mismatched shapes go through
// stride-based broadcasting.
func (cpu *Backend) binary(name string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
	i32 func(x, y int32) int32,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			switch a.DType() {
			case tensor.Float32:
				inplaceOp(a.AsFloat32(), b.AsFloat32(), f32)
			case tensor.Float64:
				inplaceOp(a.AsFloat64(), b.AsFloat64(), f64)
			case tensor.Int32:
				inplaceOp(a.AsInt32(), b.AsInt32(), i32)
			default:
				panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
			}
			return a
		}

		result := newResult(name, outShape, a.DType(), cpu.device)
		switch a.DType() {
		case tensor.Float32:
			vectorizedOp(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		case tensor.Float64:
			vectorizedOp(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		case tensor.Int32:
			vectorizedOp(result.AsInt32(), a.AsInt32(), b.AsInt32(), i32)
		default:
			panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
		}
		return result
	}

	result := newResult(name, outShape, a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		broadcastOp(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f32)
	case tensor.Float64:
		broadcastOp(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f64)
	case tensor.Int32:
		broadcastOp(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, i32)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

// Reshape returns a tensor with the same data but a different shape.
func (cpu *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := newResult("reshape", newShape, t.DType(), t.Device())
	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes the tensor by permuting its dimensions.
// Empty axes reverses all dimensions.
func (cpu *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := newResult("transpose", newShape, t.DType(), t.Device())

	switch t.DType() {
	case tensor.Float32:
		transposeData(result.AsFloat32(), t.AsFloat32(), shape, axes)
	case tensor.Float64:
		transposeData(result.AsFloat64(), t.AsFloat64(), shape, axes)
	case tensor.Int32:
		transposeData(result.AsInt32(), t.AsInt32(), shape, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

// newResult allocates an output tensor, panicking on allocation failure.
// Compute code treats allocation problems as contract violations.
func newResult(name string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}
	return result
}
