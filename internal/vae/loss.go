package vae

import (
	"fmt"

	"github.com/latent-ml/latent/internal/tensor"
)

// ELBO computes the negative evidence lower bound as a 0-D scalar tensor:
//
//	loss = sum((xRecon - x)²) - 0.5 * sum(1 + logvar - mu² - exp(logvar))
//
// Both terms are sum-reduced over ALL elements, including the batch
// dimension; the magnitude therefore grows with batch size. Callers divide
// by the batch size at reporting time only. The KL term is the closed form
// for a diagonal Gaussian posterior against a standard normal prior.
func ELBO[B tensor.Backend](xRecon, x, mu, logvar *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !xRecon.Shape().Equal(x.Shape()) {
		panic(fmt.Sprintf("ELBO: reconstruction shape %v does not match input shape %v", xRecon.Shape(), x.Shape()))
	}
	if !mu.Shape().Equal(logvar.Shape()) {
		panic(fmt.Sprintf("ELBO: mu shape %v does not match logvar shape %v", mu.Shape(), logvar.Shape()))
	}

	diff := xRecon.Sub(x)
	recon := diff.Mul(diff).Sum()

	// KL(q(z|x) || N(0, I)) = -0.5 * sum(1 + logvar - mu² - exp(logvar))
	inner := logvar.AddScalar(1).Sub(mu.Mul(mu)).Sub(logvar.Exp())
	kl := inner.Sum().MulScalar(-0.5)

	return recon.Add(kl)
}

// CELBO computes the conditional ELBO. The formula is identical to ELBO;
// class conditioning happens upstream in the model's forward pass.
func CELBO[B tensor.Backend](xRecon, x, mu, logvar *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return ELBO(xRecon, x, mu, logvar)
}
