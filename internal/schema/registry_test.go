package schema

import (
	"errors"
	"strings"
	"testing"
)

const validQuoteJSON = `{
  "vendor_name": "Acme Construction",
  "quote_date": "2025-01-15",
  "valid_until": null,
  "line_items": [
    {"description": "Framing labor", "category": "labor", "quantity": 40, "unit_price": 85, "total": 3400},
    {"description": "Lumber package", "category": "materials", "quantity": null, "unit_price": null, "total": 5200}
  ],
  "subtotal": 8600,
  "tax": 688,
  "total": 9288,
  "payment_terms": "50% upfront",
  "timeline": "6 weeks",
  "notes": null
}`

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return r
}

func TestValidateParsedQuote(t *testing.T) {
	r := mustRegistry(t)

	if err := r.Validate(ParsedQuote, []byte(validQuoteJSON)); err != nil {
		t.Fatalf("valid quote rejected: %v", err)
	}
}

func TestValidateParsedQuoteRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing vendor name",
			body: `{"line_items": [{"description": "x", "category": "labor", "total": 1}], "subtotal": 1, "total": 1}`,
		},
		{
			name: "empty line items",
			body: `{"vendor_name": "Acme", "line_items": [], "subtotal": 0, "total": 0}`,
		},
		{
			name: "unknown category",
			body: `{"vendor_name": "Acme", "line_items": [{"description": "x", "category": "misc", "total": 1}], "subtotal": 1, "total": 1}`,
		},
		{
			name: "total as string",
			body: `{"vendor_name": "Acme", "line_items": [{"description": "x", "category": "labor", "total": "1"}], "subtotal": 1, "total": 1}`,
		},
		{
			name: "unknown top-level field",
			body: `{"vendor_name": "Acme", "line_items": [{"description": "x", "category": "labor", "total": 1}], "subtotal": 1, "total": 1, "discount": 5}`,
		},
	}

	r := mustRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(ParsedQuote, []byte(tt.body))
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestValidateNotJSON(t *testing.T) {
	r := mustRegistry(t)

	err := r.Validate(ParsedQuote, []byte("I could not find a quote in this document."))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestValidateQuoteAnalysisBounds(t *testing.T) {
	t.Parallel()

	analysis := func(score, confidence string) string {
		return `{
  "criteria_used": {"priorities": ["price"]},
  "quotes": [` + validQuoteJSON + `],
  "normalized_categories": ["labor", "materials"],
  "hidden_costs": [],
  "ranking": [{"vendor": "Acme Construction", "base_price": 9288, "true_total": 9288, "score": ` + score + `, "pros": ["cheap"], "cons": []}],
  "recommendation": "Choose Acme.",
  "reasoning": "Only one quote.",
  "confidence": ` + confidence + `,
  "caveats": []
}`
	}

	r := mustRegistry(t)

	if err := r.Validate(QuoteAnalysis, []byte(analysis("87.5", "0.8"))); err != nil {
		t.Fatalf("valid analysis rejected: %v", err)
	}

	tests := []struct {
		name string
		body string
	}{
		{name: "score above 100", body: analysis("120", "0.8")},
		{name: "negative score", body: analysis("-1", "0.8")},
		{name: "confidence above 1", body: analysis("90", "1.2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(QuoteAnalysis, []byte(tt.body))
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRenderedSchemaMatchesValidator(t *testing.T) {
	r := mustRegistry(t)

	// The prompt rendering and the validator both come from the same map;
	// the rendering must therefore name every wire field the validator
	// enforces.
	rendered := r.JSON(ParsedQuote)
	for _, field := range []string{"vendor_name", "line_items", "subtotal", "total", "category", "unit_price"} {
		if !strings.Contains(rendered, field) {
			t.Fatalf("rendered schema missing field %q", field)
		}
	}

	rendered = r.JSON(QuoteAnalysis)
	for _, field := range []string{"criteria_used", "hidden_costs", "ranking", "recommendation", "confidence", "caveats"} {
		if !strings.Contains(rendered, field) {
			t.Fatalf("rendered analysis schema missing field %q", field)
		}
	}
}

func TestJSONUnknownSchema(t *testing.T) {
	r := mustRegistry(t)
	if got := r.JSON("nope"); got != "" {
		t.Fatalf("expected empty rendering for unknown schema, got %q", got)
	}
	if err := r.Validate("nope", []byte("{}")); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}
