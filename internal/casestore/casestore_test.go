package casestore

import "testing"

func TestFormatName(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "Case01"},
		{9, "Case09"},
		{10, "Case10"},
		{100, "Case100"},
	}
	for _, tt := range tests {
		if got := FormatName(tt.n); got != tt.want {
			t.Errorf("FormatName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"Case01", 1, true},
		{"Case42", 42, true},
		{"Case123", 123, true},
		{"Case1", 0, false},
		{"Case007", 0, false},
		{"Case00", 0, false},
		{"Case", 0, false},
		{"case01", 0, false},
		{"Case0a", 0, false},
		{"Case-1", 0, false},
		{"Inputs", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseName(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseName(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name  string
		cases []int
		want  int
	}{
		{"empty store", nil, 1},
		{"contiguous", []int{1, 2, 3}, 4},
		{"fills first gap", []int{1, 3, 4}, 2},
		{"fills leading gap", []int{2, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cases []Case
			for _, n := range tt.cases {
				cases = append(cases, Case{Name: FormatName(n), Number: n})
			}
			if got := NextNumber(cases); got != tt.want {
				t.Errorf("NextNumber(%v) = %d, want %d", tt.cases, got, tt.want)
			}
		})
	}
}
