// Package testutil provides test utilities for seeding snapkit case stores.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"

	"snapkit/internal/casestore"
	"snapkit/internal/evaluator"
	"snapkit/internal/fileset"
	"snapkit/internal/model"
)

// CaseGenerator creates test cases with random model inputs.
type CaseGenerator struct {
	store casestore.Store
	rng   *rand.Rand
	names []string
}

// NewCaseGenerator creates a generator over the given store. The same seed
// produces the same inputs.
func NewCaseGenerator(s casestore.Store, seed int64) *CaseGenerator {
	return &CaseGenerator{
		store: s,
		rng:   rand.New(rand.NewSource(seed)),
		names: make([]string, 0),
	}
}

// Names returns the names of all cases created by this generator.
func (g *CaseGenerator) Names() []string {
	return g.names
}

// Inputs returns a random input set for the built-in model. extra adds that
// many data files next to settings.json.
func (g *CaseGenerator) Inputs(extra int) fileset.FileSet {
	inputs := fileset.FileSet{
		model.SettingsFile: []byte(fmt.Sprintf("{\"a\": %d, \"b\": %d}\n", g.rng.Intn(1000), g.rng.Intn(1000))),
	}
	for i := 0; i < extra; i++ {
		inputs[fmt.Sprintf("data/table%02d.csv", i)] = []byte(fmt.Sprintf("x,y\n%d,%d\n", g.rng.Intn(100), g.rng.Intn(100)))
	}
	return inputs
}

// Generate creates n cases without expected outputs.
func (g *CaseGenerator) Generate(ctx context.Context, n, extra int) ([]casestore.Case, error) {
	cases := make([]casestore.Case, 0, n)
	for i := 0; i < n; i++ {
		c, err := g.store.Create(ctx, g.Inputs(extra))
		if err != nil {
			return nil, fmt.Errorf("create case %d: %w", i, err)
		}
		g.names = append(g.names, c.Name)
		cases = append(cases, c)
	}
	return cases, nil
}

// GenerateWithBaselines creates n cases and records ev's outputs as their
// expected outputs.
func (g *CaseGenerator) GenerateWithBaselines(ctx context.Context, n, extra int, ev evaluator.Evaluator) ([]casestore.Case, error) {
	cases, err := g.Generate(ctx, n, extra)
	if err != nil {
		return nil, err
	}
	for _, c := range cases {
		inputs, err := g.store.ReadInputs(ctx, c)
		if err != nil {
			return nil, err
		}
		outputs, err := ev.Evaluate(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", c.Name, err)
		}
		if err := g.store.WriteExpectedOutputs(ctx, c, outputs); err != nil {
			return nil, fmt.Errorf("write baseline for %s: %w", c.Name, err)
		}
	}
	return cases, nil
}

// Perturb shifts a case's "a" setting so its outputs no longer match the
// recorded baseline.
func (g *CaseGenerator) Perturb(ctx context.Context, c casestore.Case) error {
	inputs, err := g.store.ReadInputs(ctx, c)
	if err != nil {
		return err
	}
	var s model.Settings
	if err := json.Unmarshal(inputs[model.SettingsFile], &s); err != nil {
		return fmt.Errorf("parsing settings of %s: %w", c.Name, err)
	}
	if s.A == nil || s.B == nil {
		return fmt.Errorf("%s: settings lack a or b", c.Name)
	}
	a := *s.A + float64(1+g.rng.Intn(10))
	settings := []byte(fmt.Sprintf("{\"a\": %g, \"b\": %g}\n", a, *s.B))
	return fileset.Write(filepath.Join(c.Dir, casestore.DirInputs), fileset.FileSet{model.SettingsFile: settings})
}
