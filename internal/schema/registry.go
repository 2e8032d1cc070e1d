// Package schema is the single source of truth for the shapes exchanged with
// the inference service. Each schema is built once as a generic map, rendered
// into prompts verbatim, and compiled into the validator that checks the
// service's responses. Prompt and validator can never diverge because both
// come from the same map.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/whichbid/whichbid/internal/quotes"
)

// Registered schema names.
const (
	ParsedQuote   = "parsed_quote"
	QuoteAnalysis = "quote_analysis"
)

// Registry holds the canonical schema documents and their compiled
// validators. Construct once with New and share; it is read-only afterwards.
type Registry struct {
	rendered map[string]string
	compiled map[string]*jsonschema.Schema
}

// New builds and compiles the registry. An error here means the schema
// definitions themselves are broken, so callers treat it as fatal.
func New() (*Registry, error) {
	docs := map[string]map[string]any{
		ParsedQuote:   parsedQuoteSchema(),
		QuoteAnalysis: quoteAnalysisSchema(),
	}

	r := &Registry{
		rendered: make(map[string]string, len(docs)),
		compiled: make(map[string]*jsonschema.Schema, len(docs)),
	}

	for name, doc := range docs {
		rendered, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render %s schema: %w", name, err)
		}

		compiler := jsonschema.NewCompiler()
		resource := name + ".json"
		if err := compiler.AddResource(resource, bytes.NewReader(rendered)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
		compiled, err := compiler.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}

		r.rendered[name] = string(rendered)
		r.compiled[name] = compiled
	}

	return r, nil
}

// JSON returns the schema rendered as an indented JSON document for prompt
// embedding. Unknown names return the empty string.
func (r *Registry) JSON(name string) string {
	return r.rendered[name]
}

// Validate decodes raw as JSON and checks it against the named schema.
// A body that is not JSON yields *DecodeError; JSON violating the schema
// yields *ValidationError.
func (r *Registry) Validate(name string, raw []byte) error {
	compiled, ok := r.compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &DecodeError{Schema: name, Err: err}
	}

	if err := compiled.Validate(v); err != nil {
		return &ValidationError{Schema: name, Err: err}
	}

	return nil
}

func parsedQuoteSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor_name":   map[string]any{"type": "string", "minLength": 1},
			"quote_date":    nullable("string"),
			"valid_until":   nullable("string"),
			"line_items":    map[string]any{"type": "array", "minItems": 1, "items": lineItemSchema()},
			"subtotal":      map[string]any{"type": "number"},
			"tax":           nullable("number"),
			"total":         map[string]any{"type": "number"},
			"payment_terms": nullable("string"),
			"timeline":      nullable("string"),
			"notes":         nullable("string"),
		},
		"required": []string{"vendor_name", "line_items", "subtotal", "total"},
	}
}

func lineItemSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"category":    map[string]any{"type": "string", "enum": quotes.Categories()},
			"quantity":    nullable("number"),
			"unit_price":  nullable("number"),
			"total":       map[string]any{"type": "number"},
		},
		"required": []string{"description", "category", "total"},
	}
}

func quoteAnalysisSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"criteria_used":         criteriaSchema(),
			"quotes":                map[string]any{"type": "array", "minItems": 1, "items": parsedQuoteSchema()},
			"normalized_categories": stringArray(),
			"hidden_costs":          map[string]any{"type": "array", "items": hiddenCostSchema()},
			"ranking":               map[string]any{"type": "array", "minItems": 1, "items": rankedQuoteSchema()},
			"recommendation":        map[string]any{"type": "string", "minLength": 1},
			"reasoning":             map[string]any{"type": "string", "minLength": 1},
			"confidence":            map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"caveats":               stringArray(),
		},
		"required": []string{
			"criteria_used", "quotes", "normalized_categories", "hidden_costs",
			"ranking", "recommendation", "reasoning", "confidence", "caveats",
		},
	}
}

func criteriaSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"priorities":   map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "string"}},
			"must_include": map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}},
			"budget_limit": nullable("number"),
			"notes":        nullable("string"),
		},
		"required": []string{"priorities"},
	}
}

func hiddenCostSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":           map[string]any{"type": "string", "minLength": 1},
			"item":             map[string]any{"type": "string", "minLength": 1},
			"estimated_amount": map[string]any{"type": "number"},
			"reason":           map[string]any{"type": "string"},
		},
		"required": []string{"vendor", "item", "estimated_amount", "reason"},
	}
}

func rankedQuoteSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":     map[string]any{"type": "string", "minLength": 1},
			"base_price": map[string]any{"type": "number"},
			"true_total": map[string]any{"type": "number"},
			"score":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
			"pros":       stringArray(),
			"cons":       stringArray(),
		},
		"required": []string{"vendor", "base_price", "true_total", "score", "pros", "cons"},
	}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}
