package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a malformed value with its file, line and column.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %q: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingColumn is wrapped by ParseError when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// dateLayouts are tried in order for date and timestamp columns.
var dateLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006 15:04",
	"02/01/2006",
}

// table is one CSV file addressed by header name.
type table struct {
	file  string
	cols  map[string]int
	rows  [][]string
	lines []int
}

func readTable(dir, name string, required ...string) (*table, error) {
	path := filepath.Join(dir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", name, err)
	}
	t := &table{file: name, cols: make(map[string]int, len(header))}
	for i, h := range header {
		t.cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return nil, &ParseError{File: name, Line: 1, Column: col, Err: ErrMissingColumn}
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if blank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, row)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func (t *table) errAt(i int, col string, err error) error {
	return &ParseError{File: t.file, Line: t.lines[i], Column: col, Err: err}
}

// str returns the trimmed cell, or "" when the column or cell is absent.
func (t *table) str(i int, col string) string {
	j, ok := t.cols[col]
	if !ok || j >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][j])
}

func (t *table) required(i int, col string) (string, error) {
	s := t.str(i, col)
	if s == "" {
		return "", t.errAt(i, col, errors.New("empty value"))
	}
	return s, nil
}

// integer accepts integral floats ("3.0") as written by spreadsheet exports.
func (t *table) integer(i int, col string) (int, error) {
	s, err := t.required(i, col)
	if err != nil {
		return 0, err
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.errAt(i, col, err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, t.errAt(i, col, fmt.Errorf("%q is not an integer", s))
	}
	return int(f), nil
}

func (t *table) float(i int, col string) (float64, error) {
	s, err := t.required(i, col)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.errAt(i, col, err)
	}
	return f, nil
}

// optionalFloat returns NaN for an empty cell or a missing column.
func (t *table) optionalFloat(i int, col string) (float64, error) {
	s := t.str(i, col)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.errAt(i, col, err)
	}
	return f, nil
}

func (t *table) boolean(i int, col string) (bool, error) {
	s := t.str(i, col)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return f != 0, nil
		}
		return false, t.errAt(i, col, err)
	}
	return b, nil
}

func (t *table) timestamp(i int, col string) (time.Time, error) {
	s, err := t.required(i, col)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, t.errAt(i, col, fmt.Errorf("unrecognized date %q", s))
}
