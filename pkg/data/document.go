// Package data holds the document model shared by the loaders.
package data

import (
	"bufio"
	"encoding/json"
	"io"
)

// Document is one full-text corpus entry as stored in the benchmark dataset
// files, one JSON object per line.
type Document struct {
	Title   string `json:"title" db:"title"`
	Content string `json:"content" db:"content"`
}

const maxLineSize = 4 << 20

// ParseError marks a single unparsable line. The scanner has already consumed
// the line, so callers may skip it and read on. Any other error from Next is
// a scanner-level failure (oversized line, underlying read error) and is
// permanent.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DocumentScanner streams documents out of an NDJSON dataset file.
type DocumentScanner struct {
	s *bufio.Scanner
}

func NewDocumentScanner(r io.Reader) *DocumentScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &DocumentScanner{s: s}
}

// Next returns the next document, io.EOF at end of input, a *ParseError for a
// malformed line, or the scanner's own error when it can no longer advance.
func (ds *DocumentScanner) Next() (*Document, error) {
	for ds.s.Scan() {
		line := ds.s.Bytes()
		if len(line) == 0 {
			continue
		}
		doc := &Document{}
		if err := json.Unmarshal(line, doc); err != nil {
			return nil, &ParseError{Err: err}
		}
		return doc, nil
	}
	if err := ds.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
