package optim

import (
	"github.com/latent-ml/latent/internal/nn"
	"github.com/latent-ml/latent/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule (with momentum):
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With Momentum == 0 this reduces to plain gradient descent.
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32
	velocity map[*nn.Parameter[B]][]float32
	backend  B
}

// SGDConfig holds configuration for the SGD optimizer.
// A zero LR falls back to 0.01; Momentum defaults to 0 (disabled).
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// NewSGD creates a new SGD optimizer for the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		velocity: make(map[*nn.Parameter[B]][]float32),
		backend:  backend,
	}
}

// Step performs a single SGD update over all parameters.
// Parameters with no gradient in the map are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		gradData := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
			continue
		}

		vel, ok := s.velocity[param]
		if !ok {
			vel = make([]float32, len(paramData))
			s.velocity[param] = vel
		}

		for i := range paramData {
			vel[i] = s.momentum*vel[i] + gradData[i]
			paramData[i] -= s.lr * vel[i]
		}
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
