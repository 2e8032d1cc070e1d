// Package pipeline sequences the document-to-decision run: extract text from
// every document, parse every text into a structured quote, then analyze the
// complete set in one call. Per-document stages fan out over a bounded worker
// pool; analysis is a barrier that runs once, after everything succeeded.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/extract"
	"github.com/whichbid/whichbid/internal/quotes"
)

// ErrNoDocuments is returned by Run for an empty document set, before any
// extraction or inference work starts.
var ErrNoDocuments = errors.New("at least one document is required")

const defaultWorkers = 4

// QuoteParser is the per-document structured extraction stage.
type QuoteParser interface {
	Parse(ctx context.Context, text string) (*quotes.ParsedQuote, error)
}

// QuoteAnalyzer is the single-flight comparison stage.
type QuoteAnalyzer interface {
	Analyze(ctx context.Context, qs []quotes.ParsedQuote, criteria *quotes.ComparisonCriteria) (*quotes.Analysis, error)
}

type Pipeline struct {
	parser    QuoteParser
	analyzer  QuoteAnalyzer
	extractFn func(doc []byte) (string, error)
	workers   int
	logger    *zap.Logger
}

type Option func(*Pipeline)

// WithWorkers bounds the per-document fan-out. Size it to the inference
// service's practical concurrency limits, not the document count.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithExtractor replaces the text extraction function.
func WithExtractor(fn func(doc []byte) (string, error)) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.extractFn = fn
		}
	}
}

func New(parser QuoteParser, analyzer QuoteAnalyzer, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pipeline{
		parser:    parser,
		analyzer:  analyzer,
		extractFn: extract.Extract,
		workers:   defaultWorkers,
		logger:    log,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes the full pipeline over the ordered document set. Output order
// follows input order at every stage. The run is fail-fast: the first stage
// error cancels in-flight work and is returned as a *StageError carrying the
// stage name and document index; no partial result is ever produced.
func (p *Pipeline) Run(ctx context.Context, docs [][]byte, criteria *quotes.ComparisonCriteria) (*quotes.Analysis, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	log := p.logger.With(zap.String("run_id", uuid.New().String()))
	log.Info("starting pipeline run", zap.Int("documents", len(docs)), zap.Int("workers", p.workers))

	texts, err := fanOut(ctx, p.workers, len(docs), StageExtract, func(_ context.Context, i int) (string, error) {
		return p.extractFn(docs[i])
	})
	if err != nil {
		return nil, err
	}
	log.Debug("text extraction complete", zap.Int("documents", len(texts)))

	parsed, err := fanOut(ctx, p.workers, len(docs), StageParse, func(ctx context.Context, i int) (*quotes.ParsedQuote, error) {
		return p.parser.Parse(ctx, texts[i])
	})
	if err != nil {
		return nil, err
	}

	qs := make([]quotes.ParsedQuote, len(parsed))
	for i, q := range parsed {
		qs[i] = *q
	}
	log.Debug("quote parsing complete", zap.Int("quotes", len(qs)))

	analysis, err := p.analyzer.Analyze(ctx, qs, criteria)
	if err != nil {
		return nil, err
	}

	log.Info("pipeline run complete",
		zap.Int("ranked", len(analysis.Ranking)),
		zap.Int("hidden_costs", len(analysis.HiddenCosts)),
		zap.Float64("confidence", analysis.Confidence),
	)
	return analysis, nil
}

// fanOut runs fn for indices 0..n-1 on a bounded pool and assembles results
// in index order. The first failure cancels the stage; when several
// documents genuinely fail before noticing the cancellation, the lowest
// document index wins so the reported error is deterministic.
func fanOut[T any](ctx context.Context, workers, n int, stage string, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if workers > n {
		workers = n
	}

	results := make([]T, n)
	jobs := make(chan int)

	var (
		mu           sync.Mutex
		firstErr     *StageError
		firstGenuine bool
	)
	// A worker cut off by the stage's own cancellation reports a context
	// error for a document that did not genuinely fail; that never displaces
	// a real failure. Among genuine failures the lowest document index wins.
	fail := func(i int, err error) {
		genuine := !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		mu.Lock()
		switch {
		case firstErr == nil,
			genuine && !firstGenuine,
			genuine == firstGenuine && i < firstErr.Document:
			firstErr = &StageError{Stage: stage, Document: i, Err: err}
			firstGenuine = genuine
		}
		mu.Unlock()
		cancel()
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := fn(ctx, i)
				if err != nil {
					fail(i, err)
					return
				}
				results[i] = out
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
