package jsonparser

import (
	"encoding/json"
	"testing"
)

func TestFixJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "complete object",
			input:    `{"alt_en":"A white inkjet printer."}`,
			expected: `{"alt_en":"A white inkjet printer."}`,
		},
		{
			name:     "incomplete object - missing closing brace",
			input:    `{"alt_en":"A white inkjet printer."`,
			expected: `{"alt_en":"A white inkjet printer."}`,
		},
		{
			name:     "incomplete string - truncated mid-description",
			input:    `{"alt_en":"A white inkjet print`,
			expected: `{"alt_en":"A white inkjet print"}`,
		},
		{
			name:     "incomplete array",
			input:    `{"tags":["printer","inkjet","white"`,
			expected: `{"tags":["printer","inkjet","white"]}`,
		},
		{
			name:     "nested incomplete object",
			input:    `{"metadata":{"brand":"Epson","model":"EcoTank"`,
			expected: `{"metadata":{"brand":"Epson","model":"EcoTank"}}`,
		},
		{
			name:     "incomplete boolean literal - true",
			input:    `{"processed":tr`,
			expected: `{"processed":true}`,
		},
		{
			name:     "incomplete boolean literal - false",
			input:    `{"processed":fal`,
			expected: `{"processed":false}`,
		},
		{
			name:     "incomplete null literal",
			input:    `{"angle":nul`,
			expected: `{"angle":null}`,
		},
		{
			name:     "incomplete number",
			input:    `{"promptTokens":42`,
			expected: `{"promptTokens":42}`,
		},
		{
			name:     "incomplete decimal number",
			input:    `{"temperature":0.3`,
			expected: `{"temperature":0.3}`,
		},
		{
			name:     "array with incomplete last element",
			input:    `[{"lang":"en"},{"lang":"fr","text":"Une imprimante`,
			expected: `[{"lang":"en"},{"lang":"fr","text":"Une imprimante"}]`,
		},
		{
			name:     "deeply nested incomplete",
			input:    `{"a":{"b":{"c":{"alt_en":"e"`,
			expected: `{"a":{"b":{"c":{"alt_en":"e"}}}}`,
		},
		{
			name:     "array of incomplete objects",
			input:    `[{"lang":"en"},{"lang":"jp"`,
			expected: `[{"lang":"en"},{"lang":"jp"}]`,
		},
		{
			name:     "empty object incomplete",
			input:    `{`,
			expected: `{}`,
		},
		{
			name:     "empty array incomplete",
			input:    `[`,
			expected: `[]`,
		},
		{
			name:     "string with escape",
			input:    `{"alt_en":"front view\nof printer"`,
			expected: `{"alt_en":"front view\nof printer"}`,
		},
		// Note: A trailing backslash in a string is ambiguous - we can't know what was intended
		// Skipping this edge case as it's not a realistic model-output scenario
		{
			name:     "multiple properties incomplete",
			input:    `{"alt_en":"A printer","source":"public website","brand":"Ep`,
			expected: `{"alt_en":"A printer","source":"public website","brand":"Ep"}`,
		},
		{
			name:     "scientific notation",
			input:    `{"completionTokens":1.23e-4`,
			expected: `{"completionTokens":1.23e-4}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FixJSON(tt.input)
			if result != tt.expected {
				t.Errorf("FixJSON() = %q, want %q", result, tt.expected)
			}

			// Verify the result is valid JSON
			var v interface{}
			if err := json.Unmarshal([]byte(result), &v); err != nil {
				t.Errorf("FixJSON() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestFixJSONEmpty(t *testing.T) {
	result := FixJSON("")
	if result != "" {
		t.Errorf("FixJSON(\"\") = %q, want \"\"", result)
	}
}

func TestFixJSONComplexNested(t *testing.T) {
	input := `{"image":{"alt_en":"A white printer","translations":{"langs":["fr","de"`

	result := FixJSON(input)

	// Should be valid JSON
	var v interface{}
	if err := json.Unmarshal([]byte(result), &v); err != nil {
		t.Errorf("FixJSON() produced invalid JSON: %v\nResult: %s", err, result)
	}

	// Check that structure is maintained
	m, ok := v.(map[string]interface{})
	if !ok {
		t.Fatal("Expected result to be a map")
	}
	if _, ok := m["image"]; !ok {
		t.Error("Expected 'image' key in result")
	}
}

// Benchmark FixJSON with different input sizes
func BenchmarkFixJSON(b *testing.B) {
	inputs := []string{
		`{"alt_en":"A white printer"`,
		`{"image":{"alt_en":"A white printer","tags":["inkjet","white"`,
		`[{"lang":"en"},{"lang":"fr"},{"lang":"de"`,
	}

	for i, input := range inputs {
		b.Run(string(rune('A'+i)), func(b *testing.B) {
			for n := 0; n < b.N; n++ {
				FixJSON(input)
			}
		})
	}
}
