package ai

import "testing"

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "bare json untouched",
			input:  `{"vendor_name": "Acme"}`,
			expect: `{"vendor_name": "Acme"}`,
		},
		{
			name:   "json fence with language",
			input:  "```json\n{\"a\": 1}\n```",
			expect: `{"a": 1}`,
		},
		{
			name:   "plain fence",
			input:  "```\n{\"a\": 1}\n```",
			expect: `{"a": 1}`,
		},
		{
			name:   "surrounding whitespace",
			input:  "  \n {\"a\": 1} \n ",
			expect: `{"a": 1}`,
		},
		{
			name:   "stray backticks",
			input:  "`{\"a\": 1}`",
			expect: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
