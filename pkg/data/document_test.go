package data

import (
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestDocumentScannerReadsLines(t *testing.T) {
	in := `{"title":"a","content":"x"}` + "\n" + `{"title":"b","content":"y"}` + "\n"
	ds := NewDocumentScanner(strings.NewReader(in))

	doc, err := ds.Next()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "a" || doc.Content != "x" {
		t.Errorf("got %+v", doc)
	}
	if _, err := ds.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Next(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestDocumentScannerMalformedLineIsSkippable(t *testing.T) {
	in := "not json\n" + `{"title":"a","content":"x"}` + "\n"
	ds := NewDocumentScanner(strings.NewReader(in))

	_, err := ds.Next()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want a *ParseError", err)
	}

	// The bad line was consumed; the next call reads on.
	doc, err := ds.Next()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "a" {
		t.Errorf("got %+v", doc)
	}
}

func TestDocumentScannerOversizedLineIsPermanent(t *testing.T) {
	in := `{"title":"big","content":"` + strings.Repeat("y", maxLineSize+1) + `"}`
	ds := NewDocumentScanner(strings.NewReader(in))

	_, err := ds.Next()
	if err == nil || err == io.EOF {
		t.Fatalf("got %v, want a scanner error", err)
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Fatal("an oversized line must not be reported as skippable")
	}

	// The scanner cannot advance past it; the error repeats.
	if _, again := ds.Next(); again == nil || again == io.EOF {
		t.Fatalf("got %v, want the same scanner error again", again)
	}
}
