package ops

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// ReLUOp represents a rectified linear unit activation: output = max(0, x).
//
// Backward pass: d(ReLU(x))/dx = 1 if x > 0, else 0.
// The gradient at exactly x == 0 is taken as 0.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		input:  input,
		output: output,
	}
}

// Backward masks the output gradient where the input was non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu backward: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		x := op.input.AsFloat32()
		g := outputGrad.AsFloat32()
		dst := grad.AsFloat32()
		for i, v := range x {
			if v > 0 {
				dst[i] = g[i]
			}
		}
	case tensor.Float64:
		x := op.input.AsFloat64()
		g := outputGrad.AsFloat64()
		dst := grad.AsFloat64()
		for i, v := range x {
			if v > 0 {
				dst[i] = g[i]
			}
		}
	default:
		panic(fmt.Sprintf("relu backward: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor.
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}
