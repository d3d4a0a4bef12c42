// Package nn implements the neural network building blocks used by the
// variational models:
//   - Module interface: base interface for NN components
//   - Parameter: trainable parameters with gradient lookup
//   - Linear: fully connected layer with Xavier initialization
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/latent-ml/latent/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: compute output from input
//   - Parameters: return all trainable parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// The input tensor must have the appropriate shape for this module;
	// Linear, for example, expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters.
	Parameters() []*Parameter[B]
}
