package ops

import "github.com/latent-ml/latent/internal/tensor"

// SumOp represents a full reduction to a 0-D scalar: output = sum(x).
//
// Backward pass: every element contributed with weight 1, so the scalar
// output gradient is broadcast to the input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		input:  input,
		output: output,
	}
}

// Backward fills an input-shaped tensor with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fillLike(op.input.Shape(), outputGrad, backend.Device())}
}

// Inputs returns the input tensor.
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the 0-D sum tensor.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}
