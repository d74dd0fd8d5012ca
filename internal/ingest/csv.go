package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
)

// Policy decides what happens when a row fails the transform.
type Policy int

const (
	// PolicyAbort stops the load at the first bad row.
	PolicyAbort Policy = iota
	// PolicySkip drops bad rows, collects their errors, and loads the rest.
	PolicySkip
)

// Result is the outcome of reading one CSV source.
type Result struct {
	Documents []model.OrderDocument
	// Skipped holds the per-row errors under PolicySkip. Empty under
	// PolicyAbort (the first error aborts instead).
	Skipped []*ParseError
}

// Reader decodes a sales CSV and transforms rows into documents.
type Reader struct {
	transformer *Transformer
	policy      Policy
}

func NewReader(t *Transformer, policy Policy) *Reader {
	return &Reader{transformer: t, policy: policy}
}

// ReadFile opens and reads a CSV file from disk.
func (r *Reader) ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

// Read decodes all rows from src. The first record is the header;
// data rows are numbered from 1. No row is dropped silently: under
// PolicyAbort the first malformed row fails the whole read, under
// PolicySkip every malformed row is reported in Result.Skipped.
func (r *Reader) Read(src io.Reader) (Result, error) {
	cr := csv.NewReader(src)
	// Source rows occasionally miss trailing columns.
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}

	res := Result{Documents: []model.OrderDocument{}, Skipped: []*ParseError{}}
	rowIndex := 0
	for {
		var row model.SalesRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Result{}, fmt.Errorf("decode csv row %d: %w", rowIndex+1, err)
		}
		rowIndex++

		doc, err := r.transformer.Transform(row, rowIndex)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) && r.policy == PolicySkip {
				log.Printf("skipping row %d: %v", pe.Row, pe)
				res.Skipped = append(res.Skipped, pe)
				continue
			}
			return Result{}, err
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}
