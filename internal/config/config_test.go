package config

import (
	"testing"
)

func TestDefaultValues(t *testing.T) {
	defaults := DefaultValues()

	expected := map[string]string{
		"snapshots.dir":     "tests/snapshots",
		"staging.dir":       "Inputs",
		"evaluator.command": "",
		"evaluator.timeout": "0",
		"compare.atol":      "1e-08",
		"compare.rtol":      "0",
		"compare.ignore":    "html",
		"run.jobs":          "1",
	}

	if len(defaults) != len(expected) {
		t.Fatalf("DefaultValues() has %d entries, want %d", len(defaults), len(expected))
	}

	for k, want := range expected {
		got, ok := defaults[k]
		if !ok {
			t.Errorf("DefaultValues() missing key %q", k)
			continue
		}
		if got != want {
			t.Errorf("DefaultValues()[%q] = %q, want %q", k, got, want)
		}
	}
}

func TestDefaultValuesAreValid(t *testing.T) {
	s := &memStore{data: DefaultValues()}
	if err := Validate(s); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
	for k := range DefaultValues() {
		if !IsKnownKey(k) {
			t.Errorf("default key %q is not a known key", k)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	s := &memStore{data: map[string]string{
		"run.jobs": "4",
	}}

	if err := ApplyDefaults(s); err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}

	// Pre-existing key should not be overwritten
	if v, _ := s.Get("run.jobs"); v != "4" {
		t.Errorf("run.jobs = %q, want %q (should not be overwritten)", v, "4")
	}

	// Missing keys should be filled from defaults
	if v, ok := s.Get("snapshots.dir"); !ok || v != "tests/snapshots" {
		t.Errorf("snapshots.dir = %q, %v; want %q, true", v, ok, "tests/snapshots")
	}
	if v, ok := s.Get("compare.ignore"); !ok || v != "html" {
		t.Errorf("compare.ignore = %q, %v; want %q, true", v, ok, "html")
	}
}

func TestApplyDefaults_AllPresent(t *testing.T) {
	s := &memStore{data: map[string]string{
		"snapshots.dir":     "snaps",
		"staging.dir":       "staging",
		"evaluator.command": "python model.py",
		"evaluator.timeout": "30s",
		"compare.atol":      "0.001",
		"compare.rtol":      "0.01",
		"compare.ignore":    "html,png",
		"run.jobs":          "8",
	}}

	if err := ApplyDefaults(s); err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}

	// No values should change
	if v, _ := s.Get("snapshots.dir"); v != "snaps" {
		t.Errorf("snapshots.dir = %q, want %q", v, "snaps")
	}
	if v, _ := s.Get("evaluator.command"); v != "python model.py" {
		t.Errorf("evaluator.command = %q, want %q", v, "python model.py")
	}
}

// memStore is a simple in-memory Store for testing.
type memStore struct {
	data map[string]string
}

func (m *memStore) Get(key string) (string, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memStore) SetInMemory(key, value string) {
	m.data[key] = value
}

func (m *memStore) Unset(key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) All() map[string]string {
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}
