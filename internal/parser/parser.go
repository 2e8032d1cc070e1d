// Package parser turns one document's raw text into a structured quote via a
// schema-constrained inference call.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/ai"
	"github.com/whichbid/whichbid/internal/logger"
	"github.com/whichbid/whichbid/internal/quotes"
	"github.com/whichbid/whichbid/internal/schema"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type Parser struct {
	generator ai.Generator
	registry  *schema.Registry
	logger    *zap.Logger
	maxLogLen int
}

func New(generator ai.Generator, registry *schema.Registry, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}

	return &Parser{
		generator: generator,
		registry:  registry,
		logger:    log,
		maxLogLen: defaultMaxLogLength,
	}
}

// Parse obtains one quotes.ParsedQuote for the given document text. The
// response is decoded and validated against the parsed_quote schema before
// the typed record is constructed; a quote without line items cannot pass.
func (p *Parser) Parse(ctx context.Context, text string) (*quotes.ParsedQuote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("quote text is required")
	}

	prompt := buildPrompt(p.registry.JSON(schema.ParsedQuote), text)

	p.logger.Debug("quote parse request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, p.maxLogLen)),
	)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("quote parse response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Preview(raw, p.maxLogLen)),
	)

	cleaned := []byte(ai.ExtractJSON(raw))
	if err := p.registry.Validate(schema.ParsedQuote, cleaned); err != nil {
		return nil, err
	}

	var quote quotes.ParsedQuote
	if err := json.Unmarshal(cleaned, &quote); err != nil {
		return nil, &schema.DecodeError{Schema: schema.ParsedQuote, Err: err}
	}

	return &quote, nil
}

func buildPrompt(schemaJSON, text string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{SCHEMA_JSON}}", schemaJSON)
	prompt = strings.ReplaceAll(prompt, "{{QUOTE_TEXT}}", text)
	return prompt
}
