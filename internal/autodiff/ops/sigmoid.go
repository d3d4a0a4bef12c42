package ops

import "github.com/latent-ml/latent/internal/tensor"

// SigmoidOp represents a logistic activation: output = σ(x) = 1 / (1 + exp(-x)).
//
// Backward pass: dσ/dx = σ(x) * (1 - σ(x)), computed from the saved forward
// output: grad_x = outputGrad * output * (1 - output).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{
		input:  input,
		output: output,
	}
}

// Backward computes grad_x = outputGrad * σ(x) * (1 - σ(x)).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// 1 - output
	oneMinus := backend.AddScalar(backend.MulScalar(op.output, -1), 1)
	grad := backend.Mul(backend.Mul(outputGrad, op.output), oneMinus)
	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor.
func (op *SigmoidOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor σ(x).
func (op *SigmoidOp) Output() *tensor.RawTensor {
	return op.output
}
