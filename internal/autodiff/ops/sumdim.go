package ops

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// SumDimOp represents a sum along one dimension.
//
// Backward pass: the output gradient is repeated along the reduced
// dimension to recover the input shape.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward repeats the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad, err := tensor.NewRaw(inShape, outputGrad.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("sum_dim backward: %v", err))
	}

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= inShape[i]
	}
	dimSize := inShape[op.dim]
	inner := 1
	for i := op.dim + 1; i < len(inShape); i++ {
		inner *= inShape[i]
	}

	switch outputGrad.DType() {
	case tensor.Float32:
		expandDimData(grad.AsFloat32(), outputGrad.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		expandDimData(grad.AsFloat64(), outputGrad.AsFloat64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("sum_dim backward: unsupported dtype %s", outputGrad.DType()))
	}

	return []*tensor.RawTensor{grad}
}

func expandDimData[T tensor.DType](dst, src []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for d := 0; d < dimSize; d++ {
			base := (o*dimSize + d) * inner
			for in := 0; in < inner; in++ {
				dst[base+in] = src[o*inner+in]
			}
		}
	}
}

// Inputs returns the input tensor.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reduced output tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
