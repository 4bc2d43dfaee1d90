package transform

import (
	"context"
	"fmt"
)

const (
	sequenceDescriptionConstant         = "sequence"
	progressMessageTemplateConstant     = "[%*d/%*d] Transform %s"
	sequenceStepFailureTemplateConstant = "transform %q: %w"
	minimumProgressFieldWidthConstant   = 2
)

// Sequence runs an ordered list of transformations against one shared work
// context. Execution is strictly sequential and fail-fast: the first failing
// step aborts the rest and its error propagates unchanged apart from naming
// the step. An empty sequence is a legal no-op.
type Sequence struct {
	steps []Transformation
}

// NewSequence constructs a Sequence from the supplied steps.
func NewSequence(steps ...Transformation) Sequence {
	return Sequence{steps: append([]Transformation(nil), steps...)}
}

// Steps returns the ordered step list.
func (sequence Sequence) Steps() []Transformation {
	return append([]Transformation(nil), sequence.steps...)
}

// Transform applies each step in order, emitting a progress message before
// every step. Cancellation is honored between steps, never inside one.
func (sequence Sequence) Transform(executionContext context.Context, work *Work) error {
	totalSteps := len(sequence.steps)
	fieldWidth := progressFieldWidth(totalSteps)

	for stepIndex, step := range sequence.steps {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		work.ReportProgress(fmt.Sprintf(progressMessageTemplateConstant, fieldWidth, stepIndex+1, fieldWidth, totalSteps, step.Describe()))

		if stepError := step.Transform(executionContext, work); stepError != nil {
			return fmt.Errorf(sequenceStepFailureTemplateConstant, step.Describe(), stepError)
		}
	}

	return nil
}

// Reverse produces a sequence of the element reverses in reversed order. The
// first element whose reverse fails aborts the whole reversal; no partial
// result is returned. An empty sequence reverses to an empty sequence.
func (sequence Sequence) Reverse() (Transformation, error) {
	reversedSteps := make([]Transformation, 0, len(sequence.steps))
	for stepIndex := len(sequence.steps) - 1; stepIndex >= 0; stepIndex-- {
		reversedStep, reversalError := sequence.steps[stepIndex].Reverse()
		if reversalError != nil {
			return nil, reversalError
		}
		reversedSteps = append(reversedSteps, reversedStep)
	}
	return Sequence{steps: reversedSteps}, nil
}

// Describe implements Transformation.
func (sequence Sequence) Describe() string {
	return sequenceDescriptionConstant
}

func progressFieldWidth(totalSteps int) int {
	fieldWidth := len(fmt.Sprintf("%d", totalSteps))
	if fieldWidth < minimumProgressFieldWidthConstant {
		return minimumProgressFieldWidthConstant
	}
	return fieldWidth
}
