package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/latent-ml/latent/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The multiplication is delegated to gonum's BLAS GEMM.
func (cpu *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions must match: %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := newResult("matmul", tensor.Shape{m, n}, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		am := blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()}
		bm := blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()}
		cm := blas32.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat32()}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, am, bm, 0, cm)
	case tensor.Float64:
		am := blas64.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat64()}
		bm := blas64.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat64()}
		cm := blas64.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat64()}
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, am, bm, 0, cm)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}

	return result
}
