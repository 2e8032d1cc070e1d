// Package analyzer cross-compares the full set of structured quotes in a
// single schema-constrained inference call: category normalization,
// hidden-cost detection, criteria-weighted scoring, ranking, and a final
// recommendation.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/ai"
	"github.com/whichbid/whichbid/internal/logger"
	"github.com/whichbid/whichbid/internal/quotes"
	"github.com/whichbid/whichbid/internal/schema"
)

// ErrNoQuotes is returned when Analyze is called with an empty quote set. No
// inference request is issued in that case.
var ErrNoQuotes = errors.New("at least one quote is required for analysis")

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type Analyzer struct {
	generator ai.Generator
	registry  *schema.Registry
	logger    *zap.Logger
	maxLogLen int
}

func New(generator ai.Generator, registry *schema.Registry, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		registry:  registry,
		logger:    log,
		maxLogLen: defaultMaxLogLength,
	}
}

// Analyze compares the quotes under the given criteria. Nil criteria means
// the defaults (price as the only priority). The service's response is
// decoded and validated, then CriteriaUsed and Quotes are overwritten with
// the caller's arguments: the service is not authoritative for data it was
// merely asked to echo. Ranking is re-sorted by descending score so callers
// can rely on the order regardless of what the service produced.
func (a *Analyzer) Analyze(ctx context.Context, qs []quotes.ParsedQuote, criteria *quotes.ComparisonCriteria) (*quotes.Analysis, error) {
	if len(qs) == 0 {
		return nil, ErrNoQuotes
	}

	if criteria == nil {
		criteria = quotes.DefaultCriteria()
	}

	prompt, err := a.buildPrompt(qs, criteria)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("quote analysis request",
		zap.Int("quotes", len(qs)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("quote analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Preview(raw, a.maxLogLen)),
	)

	cleaned := []byte(ai.ExtractJSON(raw))
	if err := a.registry.Validate(schema.QuoteAnalysis, cleaned); err != nil {
		return nil, err
	}

	var analysis quotes.Analysis
	if err := json.Unmarshal(cleaned, &analysis); err != nil {
		return nil, &schema.DecodeError{Schema: schema.QuoteAnalysis, Err: err}
	}

	// Trust re-stamping: the echoed criteria and quote set come from the
	// caller, never from the model.
	analysis.CriteriaUsed = *criteria
	analysis.Quotes = append([]quotes.ParsedQuote(nil), qs...)

	sort.SliceStable(analysis.Ranking, func(i, j int) bool {
		return analysis.Ranking[i].Score > analysis.Ranking[j].Score
	})

	return &analysis, nil
}

func (a *Analyzer) buildPrompt(qs []quotes.ParsedQuote, criteria *quotes.ComparisonCriteria) (string, error) {
	criteriaJSON, err := json.MarshalIndent(criteria, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal criteria: %w", err)
	}

	quotesJSON, err := json.MarshalIndent(qs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal quotes: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CRITERIA_JSON}}", string(criteriaJSON))
	prompt = strings.ReplaceAll(prompt, "{{QUOTES_JSON}}", string(quotesJSON))
	prompt = strings.ReplaceAll(prompt, "{{SCHEMA_JSON}}", a.registry.JSON(schema.QuoteAnalysis))
	return prompt, nil
}
