package database

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Priya Nair", "priya nair"},
		{"José D'Souza", "jose d'souza"},
		{"ANNA-MARIE", "anna marie"},
		{"Müller", "muller"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMatchesName(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"Priya Nair", "priya", true},
		{"Priya Nair", "NAIR", true},
		{"José D'Souza", "jose", true},
		{"Anna-Marie Kurian", "anna marie", true},
		{"Priya Nair", "vikram", false},
		{"Priya Nair", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			if got := MatchesName(tt.name, tt.query); got != tt.want {
				t.Errorf("MatchesName(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
			}
		})
	}
}
