package plate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/klauspost/compress/gzip"
)

// Schema maps the dataset's column names onto Measurement fields. Only
// ValueColumn varies between assays; the others default to the plate-reader
// export names.
type Schema struct {
	RowColumn       string
	ColColumn       string
	ValueColumn     string
	GroupColumn     string
	PositiveControl string
}

// DefaultSchema returns the column names used by the plate-reader exports.
func DefaultSchema() Schema {
	return Schema{
		RowColumn:   "Row",
		ColColumn:   "Col",
		ValueColumn: "Value",
		GroupColumn: "Group",
	}
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	if s.RowColumn == "" {
		s.RowColumn = d.RowColumn
	}
	if s.ColColumn == "" {
		s.ColColumn = d.ColColumn
	}
	if s.ValueColumn == "" {
		s.ValueColumn = d.ValueColumn
	}
	return s
}

// LoadFile reads a delimited plate file. Files ending in ".gz" are
// decompressed on the fly.
func LoadFile(path string, schema Schema) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open plate file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Dataset{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	ds, err := ReadCSV(r, schema)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses a header-mapped delimited table. The delimiter is detected
// from the content; comma is assumed when detection is inconclusive.
func ReadCSV(r io.Reader, schema Schema) (Dataset, error) {
	schema = schema.withDefaults()

	raw, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read plate data: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = determineDelimiter(raw)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, ErrEmptyDataset
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("header parsing error: %w", err)
	}

	colRow, colCol, colValue, colGroup, err := readHeader(header, schema)
	if err != nil {
		return Dataset{}, err
	}

	var records []Measurement
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("record parsing error: %w", err)
		}
		if len(row) <= maxIndex(colRow, colCol, colValue, colGroup) {
			line, _ := cr.FieldPos(0)
			return Dataset{}, fmt.Errorf("line %d: expected at least %d fields, got %d", line, maxIndex(colRow, colCol, colValue, colGroup)+1, len(row))
		}

		value, err := parseValue(row[colValue])
		if err != nil {
			line, _ := cr.FieldPos(colValue)
			return Dataset{}, &ParseError{Line: line, Column: schema.ValueColumn, Value: row[colValue], Err: err}
		}

		m := Measurement{
			Row:   row[colRow],
			Col:   row[colCol],
			Value: value,
		}
		if colGroup >= 0 {
			m.RawGroup = row[colGroup]
			m.Group = Classify(m.RawGroup, schema.PositiveControl)
		}
		records = append(records, m)
	}

	if len(records) == 0 {
		return Dataset{}, ErrEmptyDataset
	}
	return Dataset{records: records}, nil
}

// parseValue reads a finite decimal number. ParseFloat also accepts NaN,
// infinities and hex floats; none of those is a plate reading.
func parseValue(field string) (float64, error) {
	text := strings.TrimSpace(field)
	digits := strings.TrimLeft(text, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, errNotDecimal
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotDecimal
	}
	return v, nil
}

// readHeader locates the schema's columns. The group column is optional and
// reported as -1 when absent.
func readHeader(header []string, schema Schema) (colRow, colCol, colValue, colGroup int, err error) {
	colRow, colCol, colValue, colGroup = -1, -1, -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			continue
		}
		switch name {
		case schema.RowColumn:
			colRow = i
		case schema.ColColumn:
			colCol = i
		case schema.ValueColumn:
			colValue = i
		case schema.GroupColumn:
			colGroup = i
		}
	}

	for _, c := range []struct {
		name string
		idx  int
	}{
		{schema.RowColumn, colRow},
		{schema.ColColumn, colCol},
		{schema.ValueColumn, colValue},
	} {
		if c.idx < 0 {
			return -1, -1, -1, -1, fmt.Errorf("%w: %q", ErrMissingColumn, c.name)
		}
	}
	return colRow, colCol, colValue, colGroup, nil
}

// determineDelimiter returns the single most likely delimiter rune. When the
// detector offers several candidates the conventional separators win.
func determineDelimiter(raw []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(raw), '"')
	for _, c := range delimiters {
		if len(c) == 1 && strings.ContainsRune(",;\t|", rune(c[0])) {
			return rune(c[0])
		}
	}
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}
	return ','
}

func maxIndex(idx ...int) int {
	m := idx[0]
	for _, i := range idx[1:] {
		if i > m {
			m = i
		}
	}
	return m
}
