package csvdb

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVReader is a wrapper over csv.Reader which yields raw rows of a
// range dataset. Comments (lines starting with #) and empty lines are
// skipped.
//
// Returned rows are valid only until the next call to Read: the
// underlying slice is reused.
type CSVReader struct {
	reader *csv.Reader
	line   int
}

// Read returns a next non-empty row or io.EOF.
func (cr *CSVReader) Read() ([]string, error) {
	data, err := cr.next()

	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err != nil:
		return nil, fmt.Errorf("cannot read new record: %w", err)
	}

	cr.line, _ = cr.reader.FieldPos(0)

	return data, nil
}

// Line returns a line number of the row returned by the latest Read.
// It is 0 if nothing was read yet.
func (cr *CSVReader) Line() int {
	return cr.line
}

func (cr *CSVReader) next() (data []string, err error) {
	for err == nil && len(data) == 0 {
		data, err = cr.reader.Read()
	}

	return
}

// NewCSVReader converts given io.Reader instance into CSVReader.
func NewCSVReader(filefp io.Reader) *CSVReader {
	reader := csv.NewReader(filefp)
	reader.ReuseRecord = true
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return &CSVReader{reader: reader}
}
