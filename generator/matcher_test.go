package generator

import "testing"

func TestFunctionNameMatcher(t *testing.T) {
	m := NewFunctionNameMatcher([]string{"run", "loop"})
	tests := []struct {
		name string
		want bool
	}{
		{"run", true},
		{"loop", true},
		{"runner", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.MatchFunction(tt.name); got != tt.want {
			t.Errorf("MatchFunction(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFunctionPrefixMatcher(t *testing.T) {
	m := NewFunctionPrefixMatcher([]string{"gen", "task."})
	tests := []struct {
		name string
		want bool
	}{
		{"gen", true},
		{"generate", true},
		{"task.inner", true},
		{"task", false},
		{"other", false},
	}
	for _, tt := range tests {
		if got := m.MatchFunction(tt.name); got != tt.want {
			t.Errorf("MatchFunction(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWildcardMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		fn       string
		want     bool
	}{
		{
			name:     "exact",
			patterns: []string{"run"},
			fn:       "run",
			want:     true,
		},
		{
			name:     "exact no prefix",
			patterns: []string{"run"},
			fn:       "runner",
			want:     false,
		},
		{
			name:     "prefix",
			patterns: []string{"run*"},
			fn:       "runner",
			want:     true,
		},
		{
			name:     "nested",
			patterns: []string{"outer.*"},
			fn:       "outer.inner",
			want:     true,
		},
		{
			name:     "nested excludes outer",
			patterns: []string{"outer.*"},
			fn:       "outer",
			want:     false,
		},
		{
			name:     "match all",
			patterns: []string{"*"},
			fn:       "anything",
			want:     true,
		},
		{
			name:     "empty patterns",
			patterns: nil,
			fn:       "run",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWildcardMatcher(tt.patterns)
			if got := m.MatchFunction(tt.fn); got != tt.want {
				t.Errorf("MatchFunction(%q) = %v, want %v", tt.fn, got, tt.want)
			}
		})
	}
}

func TestCompositeFunctionMatcher(t *testing.T) {
	m := NewCompositeFunctionMatcher(
		NewFunctionNameMatcher([]string{"main"}),
		NewFunctionPrefixMatcher([]string{"gen"}),
	)
	tests := []struct {
		name string
		want bool
	}{
		{"main", true},
		{"genItems", true},
		{"other", false},
	}
	for _, tt := range tests {
		if got := m.MatchFunction(tt.name); got != tt.want {
			t.Errorf("MatchFunction(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if NewCompositeFunctionMatcher().MatchFunction("main") {
		t.Error("empty composite should match nothing")
	}
}
