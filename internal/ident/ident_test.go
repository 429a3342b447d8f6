// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ident

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType Type
		wantNorm string
	}{
		{"arxiv bare", "2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv prefixed", "arXiv:2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv versioned", "2301.07041v3", TypeArxiv, "2301.07041"},
		{"doi bare", "10.1145/3292500.3330701", TypeDOI, "10.1145/3292500.3330701"},
		{"doi upper case", "10.1038/NATURE14539", TypeDOI, "10.1038/nature14539"},
		{"doi resolver url", "https://doi.org/10.1038/nature14539", TypeDOI, "10.1038/nature14539"},
		{"plain url", "https://example.org/paper.pdf", TypeURL, "https://example.org/paper.pdf"},
		{"unknown", "hello-world", TypeUnknown, "hello-world"},
		{"empty", "", TypeUnknown, ""},
		{"whitespace", "  2301.07041  ", TypeArxiv, "2301.07041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{" 10.1000/ABC ", "10.1000/abc"},
		{"https://doi.org/10.1000/xyz", "10.1000/xyz"},
		{"http://dx.doi.org/10.1000/xyz", "10.1000/xyz"},
		{"doi:10.1000/xyz", "10.1000/xyz"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArxivIDFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/pdf/2301.07041v2", "2301.07041"},
		{"https://arxiv.org/pdf/2301.07041.pdf", "2301.07041"},
		{"http://arxiv.org/abs/cs/0112017v1", "cs/0112017"},
		{"https://example.org/none", ""},
	}
	for _, tt := range tests {
		if got := ArxivIDFromURL(tt.in); got != tt.want {
			t.Errorf("ArxivIDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
