package models

import (
	"math"
	"reflect"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty text", "", 0},
		{"short text rounds up to one", "2+2?", 1},
		{"eight chars", "12345678", 2},
		{"sub-four chars", "ab", 1},
		{"forty chars", "0123456789012345678901234567890123456789", 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateTokens(tc.text); got != tc.expected {
				t.Errorf("Expected %d tokens, got %d", tc.expected, got)
			}
		})
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name         string
		inputTokens  int
		outputTokens int
		expected     float64
	}{
		{"zero usage", 0, 0, 0},
		{"input only", 1000, 0, 0.003},
		{"output only", 0, 1000, 0.015},
		{"mixed", 2000, 500, 0.006 + 0.0075},
		{"tiny turn", 4, 1, 4*0.000003 + 1*0.000015},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateCost(tc.inputTokens, tc.outputTokens); math.Abs(got-tc.expected) > 1e-12 {
				t.Errorf("Expected cost %g, got %g", tc.expected, got)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Atlas", "atlas"},
		{"spaces to underscores", "Data Pipeline", "data_pipeline"},
		{"trims surrounding space", "  Edge Cache  ", "edge_cache"},
		{"already a slug", "general", "general"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestLastN(t *testing.T) {
	msgs := []ChatMessage{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
	}

	tests := []struct {
		name     string
		n        int
		expected []ChatMessage
	}{
		{"window smaller than history", 2, msgs[1:]},
		{"window equals history", 3, msgs},
		{"window larger than history", 10, msgs},
		{"non-positive window returns all", 0, msgs},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LastN(msgs, tc.n); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
