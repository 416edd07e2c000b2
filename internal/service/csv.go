package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// Column order of the bulk property file.
const (
	colID = iota
	colTitle
	colDescription
	colSingleLine
)

// propertyRow is one parsed line of a bulk file. Err is set when the line
// could not be read as a record.
type propertyRow struct {
	Line     int
	Property *domain.Property
	Err      error
}

// newPropertyReader returns a reader for ';'-separated, '"'-quoted property
// files. Empty lines are ignored and rows may have fewer than four fields.
func newPropertyReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	return reader
}

// readPropertyRows streams the rows of a bulk file to fn. Header rows, any
// row whose first column is "id", are skipped. A malformed line is reported
// through propertyRow.Err and reading continues; only I/O errors stop it.
func readPropertyRows(r io.Reader, fn func(row propertyRow) error) error {
	reader := newPropertyReader(r)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return fmt.Errorf("failed to read property file: %w", err)
			}
			if err := fn(propertyRow{Line: parseErr.Line, Err: err}); err != nil {
				return err
			}
			continue
		}

		if len(record) == 0 || strings.EqualFold(strings.TrimSpace(record[colID]), "id") {
			continue
		}

		line, _ := reader.FieldPos(colID)
		p := domain.NewProperty(
			field(record, colID),
			field(record, colTitle),
			field(record, colDescription),
			field(record, colSingleLine),
		)
		if err := fn(propertyRow{Line: line, Property: p}); err != nil {
			return err
		}
	}
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
