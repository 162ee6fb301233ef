// Package model is the placeholder system under test shipped with the
// template. It reads settings.json and writes a one-row CSV so a freshly
// instantiated project has a working snapshot loop before the real model is
// wired in through evaluator.command.
package model

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"snapkit/internal/fileset"
)

// File names read and written by the model.
const (
	SettingsFile = "settings.json"
	OutputFile   = "df.csv"
)

// ErrMissingSettings is returned when the input set has no settings.json.
var ErrMissingSettings = errors.New("settings.json not found in inputs")

// Settings are the model inputs.
type Settings struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`

	// CreateOutputFiles is accepted for compatibility with settings files
	// written for the standalone model; the snapshot run never writes files
	// itself.
	CreateOutputFiles bool `json:"create_output_files,omitempty"`
}

// Model computes total = a - b.
type Model struct{}

// Evaluate implements evaluator.Evaluator.
func (Model) Evaluate(ctx context.Context, inputs fileset.FileSet) (fileset.FileSet, error) {
	raw, ok := inputs[SettingsFile]
	if !ok {
		return nil, ErrMissingSettings
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SettingsFile, err)
	}
	if s.A == nil || s.B == nil {
		return nil, fmt.Errorf("%s: fields \"a\" and \"b\" are required", SettingsFile)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"total"})
	w.Write([]string{strconv.FormatFloat(*s.A-*s.B, 'g', -1, 64)})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return fileset.FileSet{OutputFile: buf.Bytes()}, nil
}

// SampleInputs returns the staging inputs written by snapkit init.
func SampleInputs() fileset.FileSet {
	return fileset.FileSet{
		SettingsFile: []byte("{\n    \"a\": 3,\n    \"b\": 1\n}\n"),
	}
}
