package ops

import "github.com/latent-ml/latent/internal/tensor"

// TransposeOp represents a dimension permutation.
//
// The backward pass applies the inverse permutation to the output gradient.
// Recording it matters: the Linear layer transposes its weight before the
// matmul, and without this op the weight parameter would never receive a
// gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		input:  input,
		output: output,
		axes:   axes,
	}
}

// Backward applies the inverse axis permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs returns the input tensor.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the transposed output tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}
