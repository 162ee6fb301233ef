// Package evaluator runs the system under test against a case's inputs.
package evaluator

import (
	"context"

	"snapkit/internal/fileset"
)

// Evaluator is the system under test, consumed as a pure function from an
// input set to an output set. Implementations must be deterministic: the same
// inputs must always produce the same outputs.
type Evaluator interface {
	Evaluate(ctx context.Context, inputs fileset.FileSet) (fileset.FileSet, error)
}

// Func adapts an ordinary function to the Evaluator interface.
type Func func(ctx context.Context, inputs fileset.FileSet) (fileset.FileSet, error)

// Evaluate calls f(ctx, inputs).
func (f Func) Evaluate(ctx context.Context, inputs fileset.FileSet) (fileset.FileSet, error) {
	return f(ctx, inputs)
}
