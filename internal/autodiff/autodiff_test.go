package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latent-ml/latent/internal/autodiff"
	"github.com/latent-ml/latent/internal/backend/cpu"
	"github.com/latent-ml/latent/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.Backend]

// backward reduces the value to a scalar gradient seed of ones and runs the
// backward pass.
func backward(b testBackend) map[*tensor.RawTensor]*tensor.RawTensor {
	outputGrad := tensor.Ones[float32](tensor.Shape{}, b)
	return b.Tape().Backward(outputGrad.Raw(), b)
}

func TestBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	assert.False(t, tape.IsRecording(), "a fresh tape must not record")

	tape.StartRecording()
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestTape_RecordsOnlyWhenOn(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	a := tensor.Ones[float32](tensor.Shape{2}, backend)
	b := tensor.Ones[float32](tensor.Shape{2}, backend)

	a.Add(b)
	assert.Equal(t, 0, tape.NumOps(), "tape off: nothing recorded")

	tape.StartRecording()
	a.Add(b)
	assert.Equal(t, 1, tape.NumOps())
}

func TestTape_ClearKeepsRecordingState(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	tape.StartRecording()
	a := tensor.Ones[float32](tensor.Shape{2}, backend)
	a.Add(a)
	require.Greater(t, tape.NumOps(), 0)

	// Clear drops the operations but keeps recording on, so the trainer can
	// clear between steps without re-arming the tape.
	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording())
}

func TestTape_BackwardEmpty(t *testing.T) {
	backend := autodiff.New(cpu.New())

	grads := backward(backend)
	assert.Empty(t, grads)
}

func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	// loss = sum(x²); dloss/dx = 2x. The same tensor feeds Mul twice, so the
	// backward pass must accumulate both branches.
	x.Mul(x).Sum()

	grads := backward(backend)
	gradX := grads[x.Raw()]
	require.NotNil(t, gradX)
	assert.Equal(t, []float32{2, 4, 6}, gradX.AsFloat32())
}

func TestBackward_SubAndScalars(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{5, 5}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	// loss = sum(3 * (x - y) + 7); dloss/dx = 3, dloss/dy = -3.
	x.Sub(y).MulScalar(3).AddScalar(7).Sum()

	grads := backward(backend)
	assert.Equal(t, []float32{3, 3}, grads[x.Raw()].AsFloat32())
	assert.Equal(t, []float32{-3, -3}, grads[y.Raw()].AsFloat32())
}

func TestBackward_Sigmoid(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{0}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	// loss = sum(sigmoid(x)); at x=0, s=0.5 and ds/dx = s(1-s) = 0.25.
	x.Sigmoid().Sum()

	grads := backward(backend)
	assert.InDelta(t, 0.25, grads[x.Raw()].AsFloat32()[0], 1e-6)
}

func TestBackward_Exp(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	// d(exp)/dx = exp(x).
	x.Exp().Sum()

	grads := backward(backend)
	gradX := grads[x.Raw()].AsFloat32()
	assert.InDelta(t, 1.0, gradX[0], 1e-5)
	assert.InDelta(t, 2.71828, gradX[1], 1e-4)
}

func TestBackward_ReLUMask(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{-2, -0.5, 0.5, 2}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	x.ReLU().Sum()

	grads := backward(backend)
	assert.Equal(t, []float32{0, 0, 1, 1}, grads[x.Raw()].AsFloat32())
}

func TestBackward_MatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	// loss = sum(A @ B); dloss/dA = ones @ B.T, dloss/dB = A.T @ ones.
	a.MatMul(b).Sum()

	grads := backward(backend)
	assert.Equal(t, []float32{11, 15, 11, 15}, grads[a.Raw()].AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, grads[b.Raw()].AsFloat32())
}

func TestBackward_BroadcastAdd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	bias, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	// The bias row broadcasts over the batch: its gradient is the column sum.
	a.Add(bias).Sum()

	grads := backward(backend)
	gradBias := grads[bias.Raw()]
	require.NotNil(t, gradBias)
	assert.Equal(t, tensor.Shape{1, 3}, gradBias.Shape())
	assert.Equal(t, []float32{2, 2, 2}, gradBias.AsFloat32())

	gradA := grads[a.Raw()]
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, gradA.AsFloat32())
}

func TestBackward_TransposeAndReshape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	w, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	scale, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{6}, backend)
	require.NoError(t, err)

	// loss = sum(reshape(W.T) * scale); gradient must land on W through both
	// the reshape and the transpose, with the inverse permutation applied.
	w.Transpose().Reshape(6).Mul(scale).Sum()

	grads := backward(backend)
	gradW := grads[w.Raw()]
	require.NotNil(t, gradW)
	assert.Equal(t, tensor.Shape{2, 3}, gradW.Shape())
	// W.T flat order is (0,0),(1,0),(0,1),(1,1),(0,2),(1,2) so scale entries
	// 1..6 map back to W as [[1,3,5],[2,4,6]].
	assert.Equal(t, []float32{1, 3, 5, 2, 4, 6}, gradW.AsFloat32())
}

func TestBackward_Cat(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{5, 6}, tensor.Shape{2, 1}, backend)
	require.NoError(t, err)

	xy := tensor.Cat([]*tensor.Tensor[float32, testBackend]{x, y}, 1)
	xy.MulScalar(2).Sum()

	grads := backward(backend)
	gradX := grads[x.Raw()]
	gradY := grads[y.Raw()]
	require.NotNil(t, gradX)
	require.NotNil(t, gradY)

	assert.Equal(t, tensor.Shape{2, 2}, gradX.Shape())
	assert.Equal(t, []float32{2, 2, 2, 2}, gradX.AsFloat32())
	assert.Equal(t, tensor.Shape{2, 1}, gradY.Shape())
	assert.Equal(t, []float32{2, 2}, gradY.AsFloat32())
}

func TestBackward_SumDim(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	scale, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	// Row sums scaled per row: each element's gradient is its row's scale.
	x.SumDim(1, false).Mul(scale).Sum()

	grads := backward(backend)
	assert.Equal(t, []float32{10, 10, 10, 20, 20, 20}, grads[x.Raw()].AsFloat32())
}

func TestBackward_DoesNotDisturbForwardValues(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{4, 5, 6}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	x.Mul(y).Sum()
	backward(backend)

	// Recorded inputs must survive the backward pass unchanged; the inplace
	// fast path of the inner backend is disabled for recorded tensors.
	assert.Equal(t, []float32{1, 2, 3}, x.Data())
	assert.Equal(t, []float32{4, 5, 6}, y.Data())
}

func TestBackward_StopsRecordingInternally(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	x.Mul(x).Sum()

	opsBefore := tape.NumOps()
	backward(backend)

	// The gradient computation itself must not append to the tape, and
	// recording stays on for the caller afterwards.
	assert.Equal(t, opsBefore, tape.NumOps())
	assert.True(t, tape.IsRecording())
}
