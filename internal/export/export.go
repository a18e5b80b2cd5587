// Package export writes the student table to formats other tools can
// open: an Excel workbook, YAML or JSON. The persisted table itself is
// never touched; exporters only read a snapshot of the records.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/aanand-mishra/student-records/internal/types"
)

// SheetName is the worksheet the XLSX exporter writes to.
const SheetName = "Students"

// Format selects an exporter.
type Format string

const (
	XLSX Format = "xlsx"
	YAML Format = "yaml"
	JSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{XLSX, YAML, JSON}

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a format name (case-insensitive; "yml" is
// accepted as YAML).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case XLSX, YAML, JSON:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w %q: use one of %v", ErrUnknownFormat, s, Formats)
}

// Write encodes records to w in the given format.
func Write(w io.Writer, format Format, records []types.Record) error {
	switch format {
	case XLSX:
		return writeXLSX(w, records)
	case YAML:
		return writeYAML(w, records)
	case JSON:
		return writeJSON(w, records)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// ToFile writes records to a new file at path, replacing any existing one.
func ToFile(path string, format Format, records []types.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()

	if err := Write(f, format, records); err != nil {
		return fmt.Errorf("export: %s: %w", format, err)
	}
	return nil
}

func writeXLSX(w io.Writer, records []types.Record) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	// A new workbook starts with "Sheet1"; rename it rather than adding
	// a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(types.Fields))
	for i, name := range types.Header() {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(types.Fields))
		for j, v := range r.Values() {
			row[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, records []types.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, records []types.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []types.Record{}
	}
	return enc.Encode(records)
}
