package transform

import "context"

// ExplicitReversal pairs an independently supplied forward transformation
// with an independently supplied backward one. Transform delegates to the
// forward side; Reverse swaps the pair and never attempts structural
// inversion.
type ExplicitReversal struct {
	forward  Transformation
	backward Transformation
}

// NewExplicitReversal constructs the wrapper from a forward/backward pair.
func NewExplicitReversal(forward Transformation, backward Transformation) ExplicitReversal {
	return ExplicitReversal{forward: forward, backward: backward}
}

// Transform implements Transformation by running the forward side.
func (reversal ExplicitReversal) Transform(executionContext context.Context, work *Work) error {
	return reversal.forward.Transform(executionContext, work)
}

// Reverse implements Transformation by swapping the pair.
func (reversal ExplicitReversal) Reverse() (Transformation, error) {
	return ExplicitReversal{forward: reversal.backward, backward: reversal.forward}, nil
}

// Describe implements Transformation.
func (reversal ExplicitReversal) Describe() string {
	return reversal.forward.Describe()
}
