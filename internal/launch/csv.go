package launch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Source column headers.
const (
	ColumnSite    = "Launch Site"
	ColumnPayload = "Payload Mass (kg)"
	ColumnBooster = "Booster Version Category"
	ColumnClass   = "class"
)

var requiredColumns = []string{ColumnSite, ColumnPayload, ColumnBooster, ColumnClass}

// ParseError reports a malformed row or header in delimited input.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseCSV reads a comma-delimited launch table with a header row. Columns are
// matched by header name; unknown columns are ignored.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, &ParseError{Line: 1, Column: name, Err: errors.New("required column missing")}
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

func parseRow(row []string, index map[string]int, line int) (Record, error) {
	field := func(name string) (string, error) {
		i := index[name]
		if i >= len(row) {
			return "", &ParseError{Line: line, Column: name, Err: errors.New("field missing")}
		}
		return strings.TrimSpace(row[i]), nil
	}

	site, err := field(ColumnSite)
	if err != nil {
		return Record{}, err
	}
	if site == "" {
		return Record{}, &ParseError{Line: line, Column: ColumnSite, Err: errors.New("empty launch site")}
	}
	rawPayload, err := field(ColumnPayload)
	if err != nil {
		return Record{}, err
	}
	payload, err := strconv.ParseFloat(rawPayload, 64)
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: ColumnPayload, Err: fmt.Errorf("invalid number %q", rawPayload)}
	}
	if payload < 0 || math.IsNaN(payload) || math.IsInf(payload, 0) {
		return Record{}, &ParseError{Line: line, Column: ColumnPayload, Err: fmt.Errorf("payload %q out of range", rawPayload)}
	}
	booster, err := field(ColumnBooster)
	if err != nil {
		return Record{}, err
	}
	rawClass, err := field(ColumnClass)
	if err != nil {
		return Record{}, err
	}
	success, err := parseClass(rawClass)
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: ColumnClass, Err: err}
	}
	return Record{Site: site, PayloadMassKg: payload, BoosterCategory: booster, Success: success}, nil
}

// ParseClass converts a 0/1 outcome flag. Float spellings such as "1.0" are
// accepted because spreadsheet exports often produce them.
func ParseClass(raw string) (bool, error) { return parseClass(strings.TrimSpace(raw)) }

func parseClass(raw string) (bool, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, fmt.Errorf("invalid outcome flag %q", raw)
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("outcome flag %q must be 0 or 1", raw)
	}
}
