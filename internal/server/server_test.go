package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/ai"
	"github.com/whichbid/whichbid/internal/extract"
	"github.com/whichbid/whichbid/internal/pipeline"
	"github.com/whichbid/whichbid/internal/quotes"
	"github.com/whichbid/whichbid/internal/schema"
)

type fakeRunner struct {
	analysis    *quotes.Analysis
	err         error
	gotDocs     [][]byte
	gotCriteria *quotes.ComparisonCriteria
}

func (f *fakeRunner) Run(_ context.Context, docs [][]byte, criteria *quotes.ComparisonCriteria) (*quotes.Analysis, error) {
	f.gotDocs = docs
	f.gotCriteria = criteria
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func multipartRequest(t *testing.T, files map[string][]byte, criteria string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	if criteria != "" {
		if err := writer.WriteField("criteria", criteria); err != nil {
			t.Fatalf("writing criteria field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/quotes/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv := New(&fakeRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	runner := &fakeRunner{analysis: &quotes.Analysis{
		Ranking:        []quotes.RankedQuote{{Vendor: "Acme", Score: 90}},
		Recommendation: "Choose Acme.",
		Confidence:     0.9,
	}}
	srv := New(runner, zap.NewNop())

	req := multipartRequest(t, map[string][]byte{
		"acme.pdf":  []byte("%PDF-1"),
		"other.PDF": []byte("%PDF-2"),
	}, `{"priorities": ["price", "timeline"], "must_include": ["permits"]}`)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(runner.gotDocs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(runner.gotDocs))
	}
	if runner.gotCriteria == nil || runner.gotCriteria.Priorities[0] != "price" {
		t.Fatalf("criteria not decoded: %+v", runner.gotCriteria)
	}

	var analysis quotes.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decoding analysis: %v", err)
	}
	if analysis.Recommendation != "Choose Acme." {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAnalyzeNoCriteriaPassesNil(t *testing.T) {
	runner := &fakeRunner{analysis: &quotes.Analysis{}}
	srv := New(runner, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, map[string][]byte{"a.pdf": []byte("x")}, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if runner.gotCriteria != nil {
		t.Fatalf("expected nil criteria, got %+v", runner.gotCriteria)
	}
}

func TestAnalyzeRejectsNonPDF(t *testing.T) {
	srv := New(&fakeRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, map[string][]byte{"quote.docx": []byte("x")}, ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeRejectsMissingFiles(t *testing.T) {
	srv := New(&fakeRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, nil, `{"priorities": ["price"]}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeRejectsBadCriteria(t *testing.T) {
	srv := New(&fakeRunner{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartRequest(t, map[string][]byte{"a.pdf": []byte("x")}, "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "no documents", err: pipeline.ErrNoDocuments, status: http.StatusBadRequest},
		{
			name:   "extraction failure",
			err:    &pipeline.StageError{Stage: pipeline.StageExtract, Document: 0, Err: extract.ErrNoText},
			status: http.StatusBadRequest,
		},
		{
			name:   "validation failure",
			err:    &pipeline.StageError{Stage: pipeline.StageParse, Document: 1, Err: &schema.ValidationError{Schema: schema.ParsedQuote, Err: errors.New("missing field")}},
			status: http.StatusBadRequest,
		},
		{
			name:   "decode failure",
			err:    &schema.DecodeError{Schema: schema.QuoteAnalysis, Err: errors.New("bad json")},
			status: http.StatusBadRequest,
		},
		{name: "empty model response", err: ai.ErrEmptyResponse, status: http.StatusBadGateway},
		{name: "transport failure", err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&fakeRunner{err: tt.err}, zap.NewNop())

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, multipartRequest(t, map[string][]byte{"a.pdf": []byte("x")}, ""))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
