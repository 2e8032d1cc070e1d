package extract

import (
	"errors"
	"fmt"
	"testing"
)

type fakeDocument struct {
	pages    []string
	pageErrs map[int]error
}

func (d *fakeDocument) pageCount() int { return len(d.pages) }

func (d *fakeDocument) pageText(i int) (string, error) {
	if err, ok := d.pageErrs[i]; ok {
		return "", err
	}
	return d.pages[i-1], nil
}

func withFakeDocument(t *testing.T, doc *fakeDocument) {
	t.Helper()
	original := openDocument
	openDocument = func(_ []byte) (document, error) { return doc, nil }
	t.Cleanup(func() { openDocument = original })
}

func TestExtractJoinsPagesInOrder(t *testing.T) {
	withFakeDocument(t, &fakeDocument{pages: []string{"page one", "page two", "page three"}})

	text, err := Extract([]byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := "page one\n\npage two\n\npage three"
	if text != expect {
		t.Fatalf("expected %q, got %q", expect, text)
	}
}

func TestExtractSkipsEmptyAndFailingPages(t *testing.T) {
	withFakeDocument(t, &fakeDocument{
		pages:    []string{"first", "   \n ", "", "last"},
		pageErrs: map[int]error{3: fmt.Errorf("broken stream")},
	})

	text, err := Extract([]byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "first\n\nlast" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractNoTextIsError(t *testing.T) {
	withFakeDocument(t, &fakeDocument{pages: []string{"", "  ", "\n"}})

	if _, err := Extract([]byte("%PDF")); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestExtractDeterministic(t *testing.T) {
	withFakeDocument(t, &fakeDocument{pages: []string{"alpha", "beta"}})

	input := []byte("%PDF")
	first, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("extract is not deterministic: %q vs %q", first, second)
	}
}

func TestExtractUnreadableBytes(t *testing.T) {
	if _, err := Extract([]byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for unreadable bytes")
	}
}
