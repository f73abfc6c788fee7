// Package canonical generates and verifies CHI32 canonical reference vectors:
// a metadata table describing each case plus one little-endian uint32 file
// per case.
package canonical

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
)

// Metadata table header written by the generator
const (
	metaTitle       = "# MetaData for CHI32 Canonical Tests"
	metaFieldsLine  = "# Fields: logical_name,strategy_code,seed,phase,length,bin_filename"
	metaStrategyKey = "# strategy_code: 0=sequential, 1=swapped, 2=feedback"

	metaFieldCount = 6
)

// Case is one row of a canonical metadata table.
type Case struct {
	Name     string        `json:"name"`
	Strategy strategy.Kind `json:"strategy"`
	Seed     int64         `json:"seed"`
	Phase    int64         `json:"phase"`
	Length   int           `json:"length"`
	File     string        `json:"file"`
	Line     int           `json:"line,omitempty"`
}

// NewSource returns a strategy source positioned at the start of the case.
func (c Case) NewSource() *strategy.Source {
	return strategy.NewSource(c.Strategy, c.Seed, c.Phase)
}

// LoadMeta opens and parses a metadata table. The returned error is only set
// when the file cannot be read at all; bad rows are reported in rowErrs.
func LoadMeta(path string) (cases []Case, rowErrs []error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open metadata table: %w", err)
	}
	defer f.Close()

	return ParseMeta(f, path)
}

// ParseMeta reads metadata rows from r. Blank lines and lines starting with
// '#' are skipped. A row that cannot be used yields a *errors.MetadataError
// and parsing continues with the next line.
func ParseMeta(r io.Reader, path string) ([]Case, []error, error) {
	var cases []Case
	var rowErrs []error

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := parseRow(path, lineNumber, line)
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return cases, rowErrs, fmt.Errorf("failed to read metadata table %s: %w", path, err)
	}

	return cases, rowErrs, nil
}

func parseRow(path string, line int, text string) (Case, error) {
	fields := strings.Split(text, ",")
	if len(fields) != metaFieldCount {
		return Case{}, chierrors.NewMetadataError(path, line, "",
			fmt.Errorf("expected %d fields, got %d", metaFieldCount, len(fields)))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	c := Case{Name: fields[0], File: fields[5], Line: line}
	if err := validateName(c.Name); err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "logical_name", err)
	}
	if err := validateFile(c.File); err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "bin_filename", err)
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "strategy_code", err)
	}
	if c.Strategy, err = strategy.FromCode(code); err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "strategy_code", err)
	}

	if c.Seed, err = strategy.ParsePhase(fields[2]); err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "seed", err)
	}
	if c.Phase, err = strategy.ParsePhase(fields[3]); err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "phase", err)
	}

	length, err := strconv.ParseInt(fields[4], 10, 32)
	if err != nil {
		return Case{}, chierrors.NewMetadataError(path, line, "length", err)
	}
	if length <= 0 {
		return Case{}, chierrors.NewMetadataError(path, line, "length", fmt.Errorf("length must be positive, got %d", length))
	}
	c.Length = int(length)

	return c, nil
}

// validateName accepts logical names that survive a write and re-parse of
// the metadata table unchanged.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case strings.ContainsAny(name, ",\r\n"), strings.TrimSpace(name) != name, strings.HasPrefix(name, "#"):
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

func validateFile(file string) error {
	if file == "" || strings.ContainsAny(file, ", \t\r\n") {
		return fmt.Errorf("invalid file name %q", file)
	}
	return nil
}

// WriteMeta writes the header comments followed by one row per case.
func WriteMeta(w io.Writer, cases []Case) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, metaTitle)
	fmt.Fprintln(bw, metaFieldsLine)
	fmt.Fprintln(bw, metaStrategyKey)
	for _, c := range cases {
		fmt.Fprintf(bw, "%s,%d,%d,%d,%d,%s\n", c.Name, int(c.Strategy), c.Seed, c.Phase, c.Length, c.File)
	}
	return bw.Flush()
}
