package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sampleSize is how much of a document is inspected to pick the delimiter.
const sampleSize = 4096

// table is a CSV file split into its header and data rows.
type table struct {
	header []string
	rows   [][]string
}

// readTable reads a whole CSV document. The delimiter is whichever of ';',
// ',' or tab occurs most often on the header line, so exports from French
// locale spreadsheets load unchanged.
func readTable(r io.Reader) (*table, error) {
	br := bufio.NewReader(r)

	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	// Peek reports EOF for documents shorter than the sample; the bytes it
	// returns are still the first line.
	sample, _ := br.Peek(sampleSize)

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(sample)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return &table{header: records[0], rows: records[1:]}, nil
}

func detectDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := bytes.Count(sample, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// cell returns the trimmed value of a canonical column, or "" when the
// column is absent or the row is short.
func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return trimCell(row[i])
}
